package minimax

import "errors"

var (
	// ErrInvalidChoice is returned by Progress when the choice is not one of
	// the root's moves.
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrInconsistentState is returned by Progress when the root could not
	// be expanded at all. It means the game's move generator has nothing
	// to offer for a position it was asked to move from.
	ErrInconsistentState = errors.New("choice inconsistent with game state")
	// ErrExpiredMarker is returned when a marker points into a part of the
	// graph that has been released.
	ErrExpiredMarker = errors.New("compute received expired marker")
)

// ErrCorruptGraph is returned by Verify when a node breaks one of the
// graph's invariants.
var ErrCorruptGraph = errors.New("graph verification failed")
