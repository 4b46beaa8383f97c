package minimax

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteDot writes the graph below the root, up to maxDepth plies, in
// Graphviz dot format. Shared nodes appear once, with one edge per parent.
func (g *Graph[S, C, V]) WriteDot(w io.Writer, maxDepth int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph {")
	fmt.Fprintf(bw, " n_%d [label=%q shape=box];\n", g.root, g.dotLabel(g.root)+"\n(root)")

	type item struct {
		idx   int32
		depth int
	}
	seen := map[int32]bool{g.root: true}
	queue := []item{{g.root, 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if it.depth >= maxDepth {
			continue
		}
		n := g.arena.at(it.idx)
		for i, c := range n.children {
			if !seen[c] {
				seen[c] = true
				fmt.Fprintf(bw, " n_%d [label=%q];\n", c, g.dotLabel(c))
				queue = append(queue, item{c, it.depth + 1})
			}
			fmt.Fprintf(bw, " n_%d -> n_%d [label=%q];\n", it.idx, c, fmt.Sprint(n.choices[i]))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func (g *Graph[S, C, V]) dotLabel(idx int32) string {
	n := g.arena.at(idx)
	side := "min"
	if n.maximizing {
		side = "max"
	}
	return fmt.Sprintf("%s %v\nh=%s", side, n.score, heightString(n.height))
}

func heightString(h int32) string {
	switch h {
	case Unknown:
		return "?"
	case Terminal:
		return "T"
	}
	return fmt.Sprint(h)
}

// LogTree logs the root's children, and theirs down to depth plies, at
// debug level.
func (g *Graph[S, C, V]) LogTree(depth int) {
	root := g.arena.at(g.root)
	g.logger.Debug().Interface("score", root.score).Str("height", heightString(root.height)).
		Int("children", len(root.children)).Msg("tree-root")
	g.logChildren(g.root, 1, depth)
}

func (g *Graph[S, C, V]) logChildren(idx int32, level, depth int) {
	if level > depth {
		return
	}
	n := g.arena.at(idx)
	indent := strings.Repeat("  ", level-1)
	for i, c := range n.children {
		child := g.arena.at(c)
		g.logger.Debug().Msgf("%schild %v (score=%v, height=%s)", indent, n.choices[i], child.score, heightString(child.height))
		g.logChildren(c, level+1, depth)
	}
}
