package minimax

import (
	"cmp"
	"context"
	"fmt"
	"math"
)

// frame is one level of the search path: the node being scored and the
// position of the next child to fold into it.
type frame struct {
	node int32
	next int
}

// Compute searches the graph below the root so that every line of up to
// depth plies is scored, except for lines that pruning showed cannot change
// the result. Parts of the graph that were already searched deep enough
// are reused as they are.
func (g *Graph[S, C, V]) Compute(depth int) error {
	return g.compute(g.root, depth)
}

// ComputeAt is like Compute, but searches below the node the marker points
// at. The marker's ancestors are flagged so that the next search from the
// root goes through them again.
func (g *Graph[S, C, V]) ComputeAt(depth int, m *Marker[S, C, V]) error {
	path, err := m.resolve()
	if err != nil {
		return err
	}
	target := path[len(path)-1]
	if err := g.compute(target, depth); err != nil {
		return err
	}
	for i := len(path) - 2; i >= 0; i-- {
		g.refold(path[i], path[i+1])
	}
	return nil
}

func (g *Graph[S, C, V]) compute(start int32, depth int) error {
	if depth < 0 {
		depth = 0
	}
	if depth >= math.MaxInt32 {
		depth = math.MaxInt32 - 1
	}
	if g.arena.at(start).height >= int32(depth) {
		return nil
	}
	g.logger.Debug().Int("depth", depth).Int32("height", g.arena.at(start).height).
		Int("live-nodes", g.arena.live).Msg("compute-start")

	stack := g.frames[:0]
	pushed, err := g.enter(start, depth, &stack)
	if err != nil || !pushed {
		g.frames = stack[:0]
		return err
	}
	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]
		parent := g.arena.at(f.node)
		if f.next >= len(parent.children) {
			stack = stack[:top]
			if len(stack) > 0 {
				g.fold(&stack, f.node)
			}
			continue
		}
		child := parent.children[f.next]
		remaining := depth - len(stack)
		if g.arena.at(child).height < int32(remaining) {
			pushed, err := g.enter(child, remaining, &stack)
			if err != nil {
				g.abandon(stack)
				g.frames = stack[:0]
				return err
			}
			if pushed {
				continue
			}
		}
		g.fold(&stack, child)
	}
	g.frames = stack[:0]

	g.logger.Debug().Int("depth", depth).Int32("height", g.arena.at(start).height).
		Uint64("expansions", g.stats.Expansions).
		Uint64("evaluations", g.stats.Evaluations).
		Uint64("cutoffs", g.stats.Cutoffs).
		Int("live-nodes", g.arena.live).Msg("compute-done")
	return nil
}

// enter starts scoring idx with remaining plies left. It reports whether a
// frame was pushed; otherwise idx was scored on the spot.
func (g *Graph[S, C, V]) enter(idx int32, remaining int, stack *[]frame) (bool, error) {
	if remaining == 0 {
		return false, g.evaluate(idx, 0)
	}
	if len(g.arena.at(idx).children) == 0 {
		g.expand(idx)
		if len(g.arena.at(idx).children) == 0 {
			return false, g.evaluate(idx, Terminal)
		}
	}
	n := g.arena.at(idx)
	// Terminal is the identity for the min taken over the children.
	n.height = Terminal
	n.score = g.worst(n.maximizing)
	*stack = append(*stack, frame{node: idx})
	return true, nil
}

func (g *Graph[S, C, V]) evaluate(idx int32, height int32) error {
	n := g.arena.at(idx)
	v, err := g.game.Evaluate(n.state)
	if err != nil {
		return fmt.Errorf("evaluating position %v: %w", n.state, err)
	}
	n.score = v
	n.height = height
	g.stats.Evaluations++
	return nil
}

// expand creates the children of idx, reusing the nodes of states that are
// already in the graph.
func (g *Graph[S, C, V]) expand(idx int32) {
	n := g.arena.at(idx)
	moves := g.game.Moves(n.state)
	childMax := !n.maximizing
	children := make([]int32, 0, len(moves))
	choices := make([]C, 0, len(moves))
	for _, m := range moves {
		c, ok := g.find(m.State)
		if !ok {
			c = g.arena.alloc(m.State, childMax, g.worst(childMax))
			g.table.insert(m.State, g.arena.ref(c))
		}
		g.arena.at(c).refs++
		children = append(children, c)
		choices = append(choices, m.Choice)
	}
	n = g.arena.at(idx)
	n.children = children
	n.choices = choices
	g.stats.Expansions++
}

// fold merges a scored child into the node on top of the stack. When the
// merge lets that node be cut off, its frame is popped and the node is
// folded into its own parent in turn.
func (g *Graph[S, C, V]) fold(stack *[]frame, child int32) {
	for {
		top := len(*stack) - 1
		f := &(*stack)[top]
		p := g.arena.at(f.node)
		c := g.arena.at(child)
		f.next++
		if p.maximizing {
			if c.score > p.score {
				p.score = c.score
			}
		} else if c.score < p.score {
			p.score = c.score
		}
		if c.height >= 0 && c.height != Terminal {
			p.height = min(p.height, c.height+1)
		}
		// A node cut off on its last child has been fully scored anyway.
		if !g.pruning || top == 0 || f.next == len(p.children) {
			return
		}
		gp := g.arena.at((*stack)[top-1].node)
		if !crossed(p.maximizing, p.score, gp.score) {
			return
		}
		// The grandparent already has a better line than p, whatever p's
		// remaining children hold. Its own score rests on child being
		// searched as deep as it was.
		if c.height >= 0 && c.height < Terminal-1 {
			gp.height = min(gp.height, c.height+2)
		}
		p.height = Unknown
		g.stats.Cutoffs++
		child = f.node
		*stack = (*stack)[:top]
	}
}

// crossed tells whether a node's running score is already worse, for its
// parent, than the parent's best line so far.
func crossed[V cmp.Ordered](maximizing bool, score, parentScore V) bool {
	if maximizing {
		return score > parentScore
	}
	return score < parentScore
}

// abandon flags every node on an interrupted search path, so that later
// searches score them again instead of trusting partial results.
func (g *Graph[S, C, V]) abandon(stack []frame) {
	for _, f := range stack {
		g.arena.at(f.node).height = Unknown
	}
}

// refold recomputes an ancestor's score after one of its descendants was
// searched on its own, and flags it for another search. Only children with
// a known height, and via, the child on the marker's path, take part.
func (g *Graph[S, C, V]) refold(idx, via int32) {
	n := g.arena.at(idx)
	best := g.worst(n.maximizing)
	found := false
	for _, c := range n.children {
		child := g.arena.at(c)
		if child.height == Unknown && c != via {
			continue
		}
		found = true
		if n.maximizing {
			best = max(best, child.score)
		} else {
			best = min(best, child.score)
		}
	}
	if found {
		n.score = best
	}
	n.height = Unknown
}

// Deepen runs Compute with depths 1, 2, ... up to maxDepth, checking ctx
// between depths. It returns the deepest depth that was fully computed.
// A single Compute call is never interrupted, so ctx is only honored
// between depths.
func Deepen[S comparable, C comparable, V cmp.Ordered](ctx context.Context, g *Graph[S, C, V], maxDepth int) (int, error) {
	for d := 1; d <= maxDepth; d++ {
		select {
		case <-ctx.Done():
			g.logger.Debug().Int("depth", d-1).Msg("deepen-stopped")
			return d - 1, ctx.Err()
		default:
		}
		if err := g.Compute(d); err != nil {
			return d - 1, err
		}
		g.logger.Debug().Int("depth", d).Interface("score", g.Score()).Msg("deepen-iteration")
	}
	return maxDepth, nil
}
