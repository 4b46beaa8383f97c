package connect4

import (
	"errors"
	"math/bits"
)

const (
	// Infinity is the score of a won game before tie breaks.
	Infinity = 20000
	// Threshold separates decided games from open ones: a position whose
	// score is beyond it in absolute value has a line of four.
	Threshold = Infinity / 2
)

var ErrBothPlayersWon = errors.New("invalid game state: both players have four in a row")

// Score rates a position from player 0's point of view. Every line of four
// holding discs of only one player is worth the square of its disc count
// to that player. A won game scores Infinity less the loser's disc count,
// so quicker wins rate higher; a lost game scores the loser's disc count
// times 100 below -Infinity plus the line total, so the longest defence
// rates highest.
func Score(s State) (int, error) {
	mine, theirs := s.Players[0], s.Players[1]
	score := 0
	won, lost := false, false
	for _, w := range windows {
		m, t := mine&w, theirs&w
		switch {
		case m == w:
			won = true
		case t == w:
			lost = true
		default:
			if m == 0 {
				n := bits.OnesCount64(t)
				score -= n * n
			}
			if t == 0 {
				n := bits.OnesCount64(m)
				score += n * n
			}
		}
	}
	switch {
	case won && lost:
		return 0, ErrBothPlayersWon
	case won:
		return Infinity - bits.OnesCount64(theirs), nil
	case lost:
		return 100*bits.OnesCount64(mine) - Infinity + score, nil
	}
	return score, nil
}

// GameOver tells whether no more moves can be played in s.
func GameOver(s State) bool {
	return s.End || s.Occupied() == full
}

// Winner returns the player who completed four in a row, or -1.
func Winner(s State) int {
	if !s.End {
		return -1
	}
	return int(1 - s.Turn)
}

var full = func() uint64 {
	var b uint64
	for i := 0; i < Cells; i++ {
		b |= 1 << i
	}
	return b
}()
