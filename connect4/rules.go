package connect4

import (
	"encoding/binary"
	"math"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/fourgraph/minimax"
)

// Graph is a minimax graph over Connect Four positions, with columns as
// choices.
type Graph = minimax.Graph[State, int, int]

// Rules is the Connect Four game as the minimax graph sees it.
type Rules struct {
	// Shuffle randomizes the order of generated moves, so that equally
	// rated moves are not always picked left to right.
	Shuffle bool

	seed uint64
	rng  *frand.RNG
}

// NewRules returns shuffling rules. A zero seed picks a random one.
func NewRules(seed uint64) *Rules {
	if seed == 0 {
		seed = frand.Uint64n(math.MaxUint64) + 1
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	log.Debug().Uint64("seed", seed).Msg("using-seed")
	return &Rules{
		Shuffle: true,
		seed:    seed,
		rng:     frand.NewCustom(key[:], 1024, 12),
	}
}

// Seed returns the seed the move order is drawn from.
func (r *Rules) Seed() uint64 {
	return r.seed
}

func (r *Rules) Evaluate(s State) (int, error) {
	return Score(s)
}

// Moves returns the columns that can be played in s. A move that wins the
// game is returned alone, since nothing else is worth considering.
func (r *Rules) Moves(s State) []minimax.Move[State, int] {
	if s.End {
		return nil
	}
	moves := make([]minimax.Move[State, int], 0, Columns)
	for col := 0; col < Columns; col++ {
		next, _, ok := s.Drop(col)
		if !ok {
			continue
		}
		if next.End {
			return []minimax.Move[State, int]{{Choice: col, State: next}}
		}
		moves = append(moves, minimax.Move[State, int]{Choice: col, State: next})
	}
	if r.Shuffle && r.rng != nil {
		r.rng.Shuffle(len(moves), func(i, j int) {
			moves[i], moves[j] = moves[j], moves[i]
		})
	}
	return moves
}

func (r *Rules) ScoreBounds() (int, int) {
	return math.MinInt, math.MaxInt
}

// NewGraph returns a graph rooted at the empty board.
func NewGraph(r *Rules, opts ...minimax.Option) *Graph {
	return minimax.New[State, int, int](r, State{}, true, opts...)
}

// GraphFrom returns a graph rooted at s.
func GraphFrom(r *Rules, s State, opts ...minimax.Option) *Graph {
	return minimax.New[State, int, int](r, s, s.Turn == 0, opts...)
}
