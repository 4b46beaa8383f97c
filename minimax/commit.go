package minimax

import "fmt"

// Progress commits choice: the child it leads to becomes the new root, and
// every node only the old root kept alive is released. It returns the new
// root's state. On error the graph is left as it was.
func (g *Graph[S, C, V]) Progress(choice C) (S, error) {
	var zero S
	if len(g.arena.at(g.root).children) == 0 {
		if err := g.compute(g.root, 1); err != nil {
			return zero, err
		}
		if len(g.arena.at(g.root).children) == 0 {
			return zero, ErrInconsistentState
		}
	}
	root := g.arena.at(g.root)
	next := int32(-1)
	for i, c := range root.choices {
		if c == choice {
			next = root.children[i]
			break
		}
	}
	if next < 0 {
		return zero, fmt.Errorf("%w: %v", ErrInvalidChoice, choice)
	}

	old := g.root
	g.arena.at(next).refs++
	g.root = next
	freed := g.arena.disown(old)
	g.stats.Released += uint64(freed)
	purged := g.table.purge(&g.arena)

	g.logger.Debug().Interface("choice", choice).Int("released", freed).
		Int("purged", purged).Int("live-nodes", g.arena.live).Msg("progress")
	return g.arena.at(next).state, nil
}

// Choose returns the root's best move according to the current scores, or
// def when the root has no moves. Ties go to the first move in generator
// order.
func (g *Graph[S, C, V]) Choose(def C) C {
	root := g.arena.at(g.root)
	best := g.worst(root.maximizing)
	choice := def
	for i, c := range root.children {
		s := g.arena.at(c).score
		if (root.maximizing && s > best) || (!root.maximizing && s < best) {
			best = s
			choice = root.choices[i]
		}
	}
	return choice
}
