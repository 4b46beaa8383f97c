package minimax

import "fmt"

// Verify checks the part of the graph reachable from the root: scores must
// match what the heuristic and the children say, heights must agree with
// the children's heights, and the transposition table must hold exactly
// the live nodes. Nodes whose height is Unknown are neither checked nor
// descended. Verify evaluates positions again and is meant for tests and
// debugging only.
//
// After ComputeAt, the marker's ancestors are Unknown and the root is not
// checked; use VerifyFrom with the marker instead.
func (g *Graph[S, C, V]) Verify() error {
	if err := g.verifyTable(); err != nil {
		return err
	}
	return g.verifyFrom(g.root)
}

// VerifyFrom is like Verify, starting at the node the marker points at.
func (g *Graph[S, C, V]) VerifyFrom(m *Marker[S, C, V]) error {
	path, err := m.resolve()
	if err != nil {
		return err
	}
	if err := g.verifyTable(); err != nil {
		return err
	}
	return g.verifyFrom(path[len(path)-1])
}

func (g *Graph[S, C, V]) verifyTable() error {
	if g.table.len() != g.arena.live {
		return fmt.Errorf("%w: %d table entries for %d live nodes", ErrCorruptGraph, g.table.len(), g.arena.live)
	}
	for i := range g.arena.nodes {
		n := &g.arena.nodes[i]
		if !n.live {
			continue
		}
		r, ok := g.table.entries[n.state]
		if !ok || r != g.arena.ref(int32(i)) {
			return fmt.Errorf("%w: node %d is not registered under its state %v", ErrCorruptGraph, i, n.state)
		}
	}
	return nil
}

func (g *Graph[S, C, V]) verifyFrom(start int32) error {
	seen := map[int32]bool{start: true}
	stack := []int32{start}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := g.arena.at(idx)
		if n.height == Unknown {
			continue
		}
		if n.refs <= 0 {
			return fmt.Errorf("%w: reachable node %v has no owner", ErrCorruptGraph, n.state)
		}

		if n.height == 0 || len(n.children) == 0 {
			if len(n.children) == 0 && n.height != 0 && n.height != Terminal {
				return fmt.Errorf("%w: leaf %v has height %d", ErrCorruptGraph, n.state, n.height)
			}
			v, err := g.game.Evaluate(n.state)
			if err != nil {
				return fmt.Errorf("evaluating position %v: %w", n.state, err)
			}
			if v != n.score {
				return fmt.Errorf("%w: leaf %v scored %v, heuristic says %v", ErrCorruptGraph, n.state, n.score, v)
			}
			continue
		}

		best := g.worst(n.maximizing)
		known := 0
		for _, c := range n.children {
			child := g.arena.at(c)
			if child.height == Unknown {
				continue
			}
			known++
			if n.maximizing {
				best = max(best, child.score)
			} else {
				best = min(best, child.score)
			}
			if !seen[c] {
				seen[c] = true
				stack = append(stack, c)
			}
		}
		if known == 0 {
			return fmt.Errorf("%w: node %v has height %d but no scored children", ErrCorruptGraph, n.state, n.height)
		}
		if best != n.score {
			return fmt.Errorf("%w: node %v scored %v, children say %v", ErrCorruptGraph, n.state, n.score, best)
		}
		// Children cut off below this node may have been searched again
		// through another parent. Their scores lose to this node's score,
		// so only the children holding that score bound its height.
		bound := Terminal
		for _, c := range n.children {
			child := g.arena.at(c)
			if child.height != Unknown && child.height != Terminal && child.score == n.score {
				bound = min(bound, child.height+1)
			}
		}
		switch {
		case n.height == Terminal && bound != Terminal:
			return fmt.Errorf("%w: node %v is terminal above a child of height %d", ErrCorruptGraph, n.state, bound-1)
		case n.height < 1 || n.height > bound:
			return fmt.Errorf("%w: node %v has height %d, children allow %d", ErrCorruptGraph, n.state, n.height, bound)
		}
	}
	return nil
}
