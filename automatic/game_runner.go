// Package automatic plays Connect Four games engine against engine, for
// testing search settings against each other and collecting statistics.
package automatic

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/domino14/fourgraph/config"
	"github.com/domino14/fourgraph/connect4"
	"github.com/domino14/fourgraph/minimax"
	"github.com/domino14/fourgraph/store"
)

// LogHeader is the first line of the turn log.
const LogHeader = "gameID,ply,player,choice,score,height,livenodes\n"

// GameRunner plays games between two engine players. The players share the
// game's graph; each searches it to its own depth on its turns.
type GameRunner struct {
	depths     [2]int
	pruning    bool
	shuffle    bool
	nodeBudget int
	logchan    chan string
}

// NewGameRunner returns a runner with the first player searching to the
// configured depth and the second to depth2, or depth when depth2 is 0.
// Turns are sent as CSV lines to logchan when it is not nil.
func NewGameRunner(logchan chan string, cfg *config.Config) *GameRunner {
	d := cfg.GetInt(config.ConfigDepth)
	d2 := cfg.GetInt(config.ConfigDepth2)
	if d2 == 0 {
		d2 = d
	}
	return &GameRunner{
		depths:     [2]int{d, d2},
		pruning:    cfg.GetBool(config.ConfigPruning),
		shuffle:    cfg.GetBool(config.ConfigShuffle),
		nodeBudget: cfg.NodeBudget(),
		logchan:    logchan,
	}
}

// SetDepths sets the search depth of each player.
func (r *GameRunner) SetDepths(first, second int) {
	r.depths = [2]int{first, second}
}

// PlayGame plays one game to the end. The seed picks the move order the
// players consider; a zero seed picks a random one. The game stops with
// ctx's error between moves.
func (r *GameRunner) PlayGame(ctx context.Context, seed uint64) (*store.Game, error) {
	rules := connect4.NewRules(seed)
	rules.Shuffle = r.shuffle
	g := connect4.NewGraph(rules, minimax.WithPruning(r.pruning))
	gameID := fmt.Sprintf("%016x", rules.Seed())
	rec := &store.Game{Seed: rules.Seed(), Depths: r.depths}

	gamesInProgress.Inc()
	defer gamesInProgress.Dec()

	for !connect4.GameOver(g.State()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		player := int(g.State().Turn)
		if err := g.Compute(r.depths[player]); err != nil {
			return nil, fmt.Errorf("game %v ply %d: %w", gameID, len(rec.Moves), err)
		}
		choice := g.Choose(-1)
		score, height := g.Score(), g.Height()
		if _, err := g.Progress(choice); err != nil {
			return nil, fmt.Errorf("game %v ply %d: %w", gameID, len(rec.Moves), err)
		}
		rec.Moves = append(rec.Moves, choice)
		pliesPlayed.Inc()

		live := g.Stats().Live
		if r.nodeBudget > 0 && live > r.nodeBudget {
			nodesCollected.Add(float64(g.CollectGarbage()))
		}
		if r.logchan != nil {
			r.logchan <- fmt.Sprintf("%v,%v,%v,%v,%v,%v,%v\n",
				gameID, len(rec.Moves), player, choice, score, height, live)
		}
	}
	rec.Winner = connect4.Winner(g.State())
	rec.FinalHash = g.State().Hash()
	st := g.Stats()
	nodesReleased.Add(float64(st.Released))
	gamesPlayed.Inc()

	log.Debug().Str("game", gameID).Int("winner", rec.Winner).Int("plies", len(rec.Moves)).
		Uint64("evaluations", st.Evaluations).Uint64("cutoffs", st.Cutoffs).Msg("game-over")
	return rec, nil
}
