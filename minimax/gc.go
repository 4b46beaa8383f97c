package minimax

// CollectGarbage frees every node that can no longer be reached from the
// root, including cycles that owner counts alone never release. It
// returns the number of nodes freed.
func (g *Graph[S, C, V]) CollectGarbage() int {
	a := &g.arena
	stack := []int32{g.root}
	a.at(g.root).mark = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range a.at(cur).children {
			if n := a.at(c); !n.mark {
				n.mark = true
				stack = append(stack, c)
			}
		}
	}

	var garbage []int32
	for i := range a.nodes {
		n := &a.nodes[i]
		if n.live && !n.mark {
			garbage = append(garbage, int32(i))
		}
	}
	for _, idx := range garbage {
		for _, c := range a.at(idx).children {
			if child := a.at(c); child.mark {
				child.refs--
			}
		}
	}
	for _, idx := range garbage {
		a.release(idx)
	}
	for i := range a.nodes {
		a.nodes[i].mark = false
	}
	purged := g.table.purge(a)
	g.stats.Collected += uint64(len(garbage))

	g.logger.Debug().Int("collected", len(garbage)).Int("purged", purged).
		Int("live-nodes", a.live).Msg("collect-garbage")
	return len(garbage)
}
