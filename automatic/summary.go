package automatic

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/fourgraph/stats"
	"github.com/domino14/fourgraph/store"
)

// Summary collects the results of a batch of games.
type Summary struct {
	games []*store.Game
}

func (s *Summary) Add(g *store.Game) {
	s.games = append(s.games, g)
}

func (s *Summary) Games() int {
	return len(s.games)
}

// Wins returns how many games each player won.
func (s *Summary) Wins() [2]int {
	return [2]int{
		lo.CountBy(s.games, func(g *store.Game) bool { return g.Winner == 0 }),
		lo.CountBy(s.games, func(g *store.Game) bool { return g.Winner == 1 }),
	}
}

// Lengths returns the number of plies of every game.
func (s *Summary) Lengths() []float64 {
	return lo.Map(s.games, func(g *store.Game, _ int) float64 {
		return float64(len(g.Moves))
	})
}

func (s *Summary) String() string {
	var sb strings.Builder
	n := len(s.games)
	wins := s.Wins()
	fmt.Fprintf(&sb, "Games played: %d\n", n)
	for p := range wins {
		rate, margin := stats.Proportion(wins[p], n, 95)
		fmt.Fprintf(&sb, "Player %d wins: %d (%.1f%% +/- %.1f%%)\n", p+1, wins[p], 100*rate, 100*margin)
	}
	fmt.Fprintf(&sb, "Draws: %d\n", n-wins[0]-wins[1])

	var length stats.Statistic
	for _, l := range s.Lengths() {
		length.Push(l)
	}
	fmt.Fprintf(&sb, "Game length: %.2f +/- %.2f plies\n", length.Mean(), length.Stdev())
	sb.WriteString("Game length histogram:\n")
	stats.WriteHistogram(&sb, s.Lengths(), 10, 40)
	return sb.String()
}
