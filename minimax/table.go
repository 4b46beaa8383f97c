package minimax

// liveness tells the table whether a reference still points at a node.
type liveness interface {
	alive(r ref) bool
}

// transpositionTable maps every state in the graph to its node, so that a
// position reached through different move orders is searched once. Entries
// are weak: the node behind an entry may have been freed, in which case
// the entry is treated as absent until purge drops it.
type transpositionTable[S comparable] struct {
	entries map[S]ref
	lookups uint64
	hits    uint64
}

func newTranspositionTable[S comparable]() *transpositionTable[S] {
	return &transpositionTable[S]{entries: make(map[S]ref)}
}

func (t *transpositionTable[S]) lookup(state S, l liveness) (ref, bool) {
	t.lookups++
	r, ok := t.entries[state]
	if !ok || !l.alive(r) {
		return ref{}, false
	}
	t.hits++
	return r, true
}

func (t *transpositionTable[S]) insert(state S, r ref) {
	t.entries[state] = r
}

// purge drops the entries whose node is gone and returns how many it
// dropped.
func (t *transpositionTable[S]) purge(l liveness) int {
	dropped := 0
	for state, r := range t.entries {
		if !l.alive(r) {
			delete(t.entries, state)
			dropped++
		}
	}
	return dropped
}

func (t *transpositionTable[S]) len() int {
	return len(t.entries)
}
