package minimax

import "cmp"

// Move is one continuation produced by a Game: the choice that was made and
// the state it leads to.
type Move[S comparable, C comparable] struct {
	Choice C
	State  S
}

// Game is what the graph needs to know about the game being searched.
//
// States must be comparable and must encode the side to move, since the
// graph keeps exactly one node per distinct state.
type Game[S comparable, C comparable, V cmp.Ordered] interface {
	// Evaluate scores a position from the maximizing side's point of view.
	// It is only called on positions that have no children in the current
	// search, either because the depth limit was reached or because the
	// position has no moves. An error means the position itself is invalid.
	Evaluate(state S) (V, error)
	// Moves lists the continuations of a position. An empty result means
	// the game is over. A generator may return a single decisive move to
	// stop the search from looking at the alternatives. The order is kept
	// and breaks ties in Choose.
	Moves(state S) []Move[S, C]
	// ScoreBounds returns the lowest and highest possible scores. They seed
	// nodes that have not been scored yet.
	ScoreBounds() (lowest, highest V)
}
