package connect4

import (
	"errors"
	"math/bits"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/fourgraph/minimax"
)

// countingRules counts calls into the rules.
type countingRules struct {
	*Rules
	evaluations int
	generated   int
}

func (c *countingRules) Evaluate(s State) (int, error) {
	c.evaluations++
	return c.Rules.Evaluate(s)
}

func (c *countingRules) Moves(s State) []minimax.Move[State, int] {
	c.generated++
	return c.Rules.Moves(s)
}

func orderedRules() *Rules {
	r := NewRules(42)
	r.Shuffle = false
	return r
}

func TestScore(t *testing.T) {
	is := is.New(t)
	cases := []struct {
		name  string
		moves []int
		want  int
	}{
		{"empty", nil, 0},
		{"corner", []int{0}, 3},
		{"center", []int{3}, 7},
		{"answered", []int{3, 3}, -3},
		{"won", []int{0, 0, 1, 1, 2, 2, 3}, Infinity - 3},
	}
	for _, tc := range cases {
		got, err := Score(play(t, tc.moves...))
		is.NoErr(err)
		is.Equal(got, tc.want)
	}
}

func TestScoreSymmetry(t *testing.T) {
	is := is.New(t)
	s := play(t, 3, 2, 3, 4, 1)
	v, err := Score(s)
	is.NoErr(err)
	swapped := s
	swapped.Players[0], swapped.Players[1] = s.Players[1], s.Players[0]
	w, err := Score(swapped)
	is.NoErr(err)
	is.Equal(v, -w)
}

func TestScoreLost(t *testing.T) {
	is := is.New(t)
	// x completes the bottom row while o is scattered above it.
	s := play(t, 0, 1, 0, 2, 0, 3, 6, 4)
	is.True(s.End)
	is.Equal(Winner(s), 1)
	v, err := Score(s)
	is.NoErr(err)
	is.True(v < -Threshold)

	lines := 0
	for _, w := range windows {
		m, t := s.Players[0]&w, s.Players[1]&w
		if t == w {
			continue
		}
		if m == 0 {
			lines -= bits.OnesCount64(t) * bits.OnesCount64(t)
		}
		if t == 0 {
			lines += bits.OnesCount64(m) * bits.OnesCount64(m)
		}
	}
	is.Equal(v, 100*bits.OnesCount64(s.Players[0])-Infinity+lines)
}

func TestScoreBothWon(t *testing.T) {
	is := is.New(t)
	s := State{Players: [2]uint64{
		bit(0, 0) | bit(0, 1) | bit(0, 2) | bit(0, 3),
		bit(1, 0) | bit(1, 1) | bit(1, 2) | bit(1, 3),
	}}
	_, err := Score(s)
	is.True(errors.Is(err, ErrBothPlayersWon))

	g := GraphFrom(orderedRules(), s)
	err = g.Compute(1)
	is.True(errors.Is(err, ErrBothPlayersWon))
}

func TestMoves(t *testing.T) {
	is := is.New(t)
	r := orderedRules()
	moves := r.Moves(State{})
	is.Equal(len(moves), Columns)
	for i, m := range moves {
		is.Equal(m.Choice, i)
		is.Equal(m.State.Turn, uint8(1))
	}

	// a full column is skipped
	moves = r.Moves(play(t, 0, 0, 0, 0, 0, 0))
	is.Equal(len(moves), Columns-1)
	is.Equal(moves[0].Choice, 1)

	// a winning move is the only one offered
	s := play(t, 0, 6, 1, 6, 2, 5)
	moves = r.Moves(s)
	is.Equal(len(moves), 1)
	is.Equal(moves[0].Choice, 3)
	is.True(moves[0].State.End)
	is.Equal(len(r.Moves(moves[0].State)), 0)
}

func TestShuffleIsSeeded(t *testing.T) {
	is := is.New(t)
	order := func(r *Rules) []int {
		var cols []int
		for i := 0; i < 5; i++ {
			for _, m := range r.Moves(State{}) {
				cols = append(cols, m.Choice)
			}
		}
		return cols
	}
	a, b := NewRules(7), NewRules(7)
	is.Equal(order(a), order(b))
	is.Equal(a.Seed(), uint64(7))
	is.True(NewRules(0).Seed() != 0)
}

func TestOnePlyFromEmptyBoard(t *testing.T) {
	is := is.New(t)
	g := NewGraph(orderedRules())
	is.NoErr(g.Compute(1))

	branches := g.Branches()
	is.Equal(len(branches), Columns)
	for _, b := range branches {
		want, err := Score(play(t, b.Choice))
		is.NoErr(err)
		is.Equal(b.Score, want)
		is.Equal(b.Height, int32(0))
	}
	is.Equal(g.Choose(-1), 3)
	is.NoErr(g.Verify())
}

func TestChoosesImmediateWin(t *testing.T) {
	is := is.New(t)
	for _, shuffle := range []bool{false, true} {
		r := NewRules(3)
		r.Shuffle = shuffle
		// o threatens 0-1-2-3 on the bottom row, x threatens column 6.
		g := GraphFrom(r, play(t, 0, 6, 1, 6, 2, 6))
		is.True(g.Maximizing())
		is.NoErr(g.Compute(1))
		is.Equal(g.Choose(-1), 3)
		is.True(g.Score() > Threshold)

		next, err := g.Progress(3)
		is.NoErr(err)
		is.True(GameOver(next))
		is.Equal(Winner(next), 0)
	}
}

func TestMinimizerTakesWin(t *testing.T) {
	is := is.New(t)
	g := GraphFrom(orderedRules(), play(t, 0, 6, 2, 6, 4, 6, 0))
	is.True(!g.Maximizing())
	is.NoErr(g.Compute(1))
	is.Equal(g.Choose(-1), 6)
	is.True(g.Score() < -Threshold)
}

func TestBlocksThreat(t *testing.T) {
	is := is.New(t)
	// x threatens column 6 and o has no win of its own.
	g := GraphFrom(orderedRules(), play(t, 0, 6, 2, 6, 4, 6))
	is.NoErr(g.Compute(2))
	is.Equal(g.Choose(-1), 6)
	is.True(g.Score() > -Threshold)
	is.NoErr(g.Verify())
}

func TestTranspositionsShareNodes(t *testing.T) {
	is := is.New(t)
	g := NewGraph(orderedRules(), minimax.WithPruning(false))
	is.NoErr(g.Compute(3))

	distinct := map[State]bool{{}: true}
	frontier := []State{{}}
	r := orderedRules()
	for ply := 0; ply < 3; ply++ {
		var next []State
		for _, s := range frontier {
			for _, m := range r.Moves(s) {
				if !distinct[m.State] {
					distinct[m.State] = true
					next = append(next, m.State)
				}
			}
		}
		frontier = next
	}
	st := g.Stats()
	is.Equal(st.Live, len(distinct))
	is.Equal(st.Table, len(distinct))
	is.True(st.TableHits > 0)

	a := g.Marker()
	b := g.Marker()
	for _, c := range []int{0, 1, 2} {
		is.NoErr(a.Descend(c))
	}
	for _, c := range []int{2, 1, 0} {
		is.NoErr(b.Descend(c))
	}
	sa, err := a.State()
	is.NoErr(err)
	sb, err := b.State()
	is.NoErr(err)
	is.Equal(sa, sb)
	is.Equal(g.Stats().Live, len(distinct))
	is.NoErr(g.Verify())
}

func TestReuseAfterProgress(t *testing.T) {
	is := is.New(t)
	rules := &countingRules{Rules: orderedRules()}
	g := minimax.New[State, int, int](rules, State{}, true)
	is.NoErr(g.Compute(4))
	choice := g.Choose(-1)
	is.True(choice >= 0)

	_, err := g.Progress(choice)
	is.NoErr(err)
	rules.evaluations, rules.generated = 0, 0
	is.NoErr(g.Compute(3))
	is.Equal(rules.evaluations, 0)
	is.Equal(rules.generated, 0)
	is.NoErr(g.Verify())
}

func TestProgressErrors(t *testing.T) {
	is := is.New(t)
	g := NewGraph(orderedRules())
	_, err := g.Progress(9)
	is.True(errors.Is(err, minimax.ErrInvalidChoice))
	is.Equal(g.State(), State{})

	won := play(t, 0, 0, 1, 1, 2, 2, 3)
	g = GraphFrom(orderedRules(), won)
	_, err = g.Progress(4)
	is.True(errors.Is(err, minimax.ErrInconsistentState))
}

func TestSelfPlayToTheEnd(t *testing.T) {
	is := is.New(t)
	g := NewGraph(NewRules(11))
	for !GameOver(g.State()) {
		is.NoErr(g.Compute(4))
		is.NoErr(g.Verify())
		choice := g.Choose(-1)
		is.True(choice >= 0)
		is.Equal(g.Choose(-1), choice)
		_, err := g.Progress(choice)
		is.NoErr(err)
		if g.State().Plies()%10 == 0 {
			g.CollectGarbage()
		}
	}
	is.True(g.State().Plies() <= Cells)
}
