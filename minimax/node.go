package minimax

import (
	"cmp"
	"math"
)

const (
	// Unknown is the height of a node whose score was never computed, or
	// whose search was cut short by pruning. Such nodes are always searched
	// again when a search reaches them.
	Unknown = int32(-1)
	// Terminal is the height of a node whose score is final: every line
	// below it that matters ends the game.
	Terminal = int32(math.MaxInt32)
)

// ref is a weak reference to an arena slot. It goes stale when the slot is
// freed, because freeing bumps the slot's generation.
type ref struct {
	idx int32
	gen uint32
}

type node[S comparable, C comparable, V cmp.Ordered] struct {
	state      S
	score      V
	height     int32
	maximizing bool

	children []int32
	choices  []C

	// refs counts owners: parents' child slots plus the root holder.
	refs int32
	gen  uint32
	live bool
	mark bool
}

// arena stores every node of a graph. Nodes refer to each other by slot
// index, so the slice may grow without invalidating links. Pointers
// returned by at are only valid until the next alloc.
type arena[S comparable, C comparable, V cmp.Ordered] struct {
	nodes []node[S, C, V]
	free  []int32
	live  int
}

func (a *arena[S, C, V]) alloc(state S, maximizing bool, score V) int32 {
	var idx int32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.nodes = append(a.nodes, node[S, C, V]{})
		idx = int32(len(a.nodes) - 1)
	}
	n := &a.nodes[idx]
	*n = node[S, C, V]{
		state:      state,
		score:      score,
		height:     Unknown,
		maximizing: maximizing,
		gen:        n.gen,
		live:       true,
	}
	a.live++
	return idx
}

func (a *arena[S, C, V]) release(idx int32) {
	n := &a.nodes[idx]
	if !n.live {
		panic("minimax: releasing a free node")
	}
	gen := n.gen + 1
	*n = node[S, C, V]{gen: gen}
	a.free = append(a.free, idx)
	a.live--
}

func (a *arena[S, C, V]) at(idx int32) *node[S, C, V] {
	return &a.nodes[idx]
}

func (a *arena[S, C, V]) ref(idx int32) ref {
	return ref{idx: idx, gen: a.nodes[idx].gen}
}

func (a *arena[S, C, V]) alive(r ref) bool {
	if r.idx < 0 || int(r.idx) >= len(a.nodes) {
		return false
	}
	n := &a.nodes[r.idx]
	return n.live && n.gen == r.gen
}

// disown drops one owner of idx. Nodes left without owners are freed, and
// so are their children once they lose their last owner in turn.
func (a *arena[S, C, V]) disown(idx int32) int {
	freed := 0
	stack := []int32{idx}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &a.nodes[cur]
		n.refs--
		if n.refs > 0 {
			continue
		}
		stack = append(stack, n.children...)
		a.release(cur)
		freed++
	}
	return freed
}
