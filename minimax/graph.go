// Package minimax implements a minimax search over a shared decision graph.
//
// Positions reached through different move orders share one node, looked up
// through a transposition table. Every node remembers how deep the search
// below it went, so repeated calls to Compute with growing depths, and
// searches after a move was committed with Progress, only explore what is
// new. Alpha-beta pruning uses the bound of the grandparent of the node
// being scored.
//
// A Graph is not safe for concurrent use.
package minimax

import (
	"cmp"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Graph is a minimax decision graph rooted at the current position.
type Graph[S comparable, C comparable, V cmp.Ordered] struct {
	game   Game[S, C, V]
	arena  arena[S, C, V]
	table  *transpositionTable[S]
	root   int32
	lowest V
	// highest is the worst score for a minimizing node.
	highest V

	pruning bool
	logger  zerolog.Logger
	stats   Stats

	frames []frame
}

// Stats counts the work done by a graph over its lifetime.
type Stats struct {
	// Live is the number of nodes currently allocated.
	Live int
	// Table is the number of transposition table entries.
	Table       int
	Expansions  uint64
	Evaluations uint64
	Cutoffs     uint64
	// Released counts nodes freed because they lost their last owner.
	Released uint64
	// Collected counts nodes freed by CollectGarbage.
	Collected uint64
	TableHits uint64
}

// Branch describes one of the root's moves.
type Branch[C comparable, V cmp.Ordered] struct {
	Choice C
	Score  V
	Height int32
}

type options struct {
	pruning bool
	logger  *zerolog.Logger
}

// Option configures a Graph.
type Option func(*options)

// WithPruning turns alpha-beta pruning on or off. It is on by default;
// turning it off makes every search expand the full tree to its depth.
func WithPruning(on bool) Option {
	return func(o *options) {
		o.pruning = on
	}
}

// WithLogger sets the logger used by the graph. The global zerolog logger
// is used otherwise.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}

// New creates a graph whose root is start. maximizing tells whether the
// side to move at start picks the highest scores.
func New[S comparable, C comparable, V cmp.Ordered](game Game[S, C, V], start S, maximizing bool, opts ...Option) *Graph[S, C, V] {
	o := options{pruning: true}
	for _, opt := range opts {
		opt(&o)
	}
	g := &Graph[S, C, V]{
		game:    game,
		table:   newTranspositionTable[S](),
		pruning: o.pruning,
		logger:  log.Logger,
	}
	if o.logger != nil {
		g.logger = *o.logger
	}
	g.lowest, g.highest = game.ScoreBounds()
	g.root = g.arena.alloc(start, maximizing, g.worst(maximizing))
	g.arena.at(g.root).refs = 1
	g.table.insert(start, g.arena.ref(g.root))
	return g
}

// worst is the score a node of the given type starts out with.
func (g *Graph[S, C, V]) worst(maximizing bool) V {
	if maximizing {
		return g.lowest
	}
	return g.highest
}

// find returns the live node registered for state.
func (g *Graph[S, C, V]) find(state S) (int32, bool) {
	r, ok := g.table.lookup(state, &g.arena)
	if !ok {
		return 0, false
	}
	return r.idx, true
}

// State returns the root's state.
func (g *Graph[S, C, V]) State() S {
	return g.arena.at(g.root).state
}

// Score returns the root's current score.
func (g *Graph[S, C, V]) Score() V {
	return g.arena.at(g.root).score
}

// Height returns how many plies have been searched below the root. It is
// Unknown before the first search and Terminal once the game's outcome
// is settled.
func (g *Graph[S, C, V]) Height() int32 {
	return g.arena.at(g.root).height
}

// Maximizing tells whether the side to move at the root picks the highest
// score. It flips every time a move is committed.
func (g *Graph[S, C, V]) Maximizing() bool {
	return g.arena.at(g.root).maximizing
}

// Branches lists the root's moves in generator order.
func (g *Graph[S, C, V]) Branches() []Branch[C, V] {
	root := g.arena.at(g.root)
	branches := make([]Branch[C, V], len(root.children))
	for i, c := range root.children {
		child := g.arena.at(c)
		branches[i] = Branch[C, V]{Choice: root.choices[i], Score: child.score, Height: child.height}
	}
	return branches
}

// Contains tells whether the graph has a live node for state.
func (g *Graph[S, C, V]) Contains(state S) bool {
	_, ok := g.find(state)
	return ok
}

// Stats returns the graph's counters.
func (g *Graph[S, C, V]) Stats() Stats {
	s := g.stats
	s.Live = g.arena.live
	s.Table = g.table.len()
	s.TableHits = g.table.hits
	return s
}
