package minimax

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestProgress(t *testing.T) {
	is := is.New(t)
	g := New[string, string, int](smallTree(), "root", true)
	is.NoErr(g.Compute(2))

	state, err := g.Progress("a")
	is.NoErr(err)
	is.Equal(state, "a")
	is.Equal(g.State(), "a")
	is.True(!g.Maximizing())
	is.Equal(g.Score(), 3)

	st := g.Stats()
	is.Equal(st.Live, 3)
	is.Equal(st.Table, 3)
	is.Equal(st.Released, uint64(4))
	is.True(!g.Contains("b1"))
	is.True(!g.Contains("root"))

	// The subtree below a was already searched one ply deep.
	evals := st.Evaluations
	is.NoErr(g.Compute(1))
	is.Equal(g.Stats().Evaluations, evals)
	is.Equal(g.Choose(""), "a1")
	is.NoErr(g.Verify())
}

func TestProgressExpandsFreshRoot(t *testing.T) {
	is := is.New(t)
	g := New[string, string, int](smallTree(), "root", true)

	state, err := g.Progress("b")
	is.NoErr(err)
	is.Equal(state, "b")
	is.Equal(g.Stats().Live, 1)
	is.Equal(g.Height(), int32(0))
}

func TestProgressInvalidChoice(t *testing.T) {
	is := is.New(t)
	g := New[string, string, int](smallTree(), "root", true)
	is.NoErr(g.Compute(2))
	before := g.Stats()

	_, err := g.Progress("c")
	is.True(errors.Is(err, ErrInvalidChoice))
	is.Equal(g.State(), "root")
	is.Equal(g.Stats(), before)
}

func TestProgressFromFinishedGame(t *testing.T) {
	is := is.New(t)
	g := New[string, string, int](smallTree(), "a1", false)

	_, err := g.Progress("x")
	is.True(errors.Is(err, ErrInconsistentState))
	is.Equal(g.State(), "a1")
	is.Equal(g.Height(), Terminal)
}

func TestChoose(t *testing.T) {
	is := is.New(t)
	game := &treeGame{
		moves:  map[string][]string{"root": {"a", "b", "c"}},
		scores: map[string]int{"a": 1, "b": 6, "c": 6},
	}
	g := New[string, string, int](game, "root", true)
	is.Equal(g.Choose("none"), "none")

	is.NoErr(g.Compute(1))
	is.Equal(g.Choose("none"), "b")
	// Choosing does not change the graph.
	is.Equal(g.Choose("none"), "b")
	is.Equal(g.Score(), 6)

	g = New[string, string, int](game, "root", false)
	is.NoErr(g.Compute(1))
	is.Equal(g.Choose("none"), "a")
}

func TestCollectGarbageCycle(t *testing.T) {
	is := is.New(t)
	game := &treeGame{
		moves: map[string][]string{
			"r": {"p", "s"},
			"p": {"q"},
			"q": {"p"},
		},
		scores: map[string]int{"s": 1},
	}
	g := New[string, string, int](game, "r", true, WithPruning(false))
	is.NoErr(g.Compute(3))
	is.Equal(g.Stats().Live, 4)

	_, err := g.Progress("s")
	is.NoErr(err)
	// p and q keep each other alive.
	is.Equal(g.Stats().Live, 3)
	is.True(g.Contains("p"))

	is.Equal(g.CollectGarbage(), 2)
	st := g.Stats()
	is.Equal(st.Live, 1)
	is.Equal(st.Table, 1)
	is.Equal(st.Collected, uint64(2))
	is.True(!g.Contains("q"))
	is.NoErr(g.Verify())

	is.Equal(g.CollectGarbage(), 0)
}

func TestCollectGarbageKeepsReachable(t *testing.T) {
	is := is.New(t)
	game := numberGame{width: 3}
	g := New[numberState, int, int](game, numberState{}, true)
	is.NoErr(g.Compute(4))
	live := g.Stats().Live

	is.Equal(g.CollectGarbage(), 0)
	is.Equal(g.Stats().Live, live)
	is.NoErr(g.Verify())

	_, err := g.Progress(2)
	is.NoErr(err)
	is.Equal(g.CollectGarbage(), 0)
	is.NoErr(g.Compute(4))
	is.NoErr(g.Verify())
}

func TestSlotsAreReused(t *testing.T) {
	is := is.New(t)
	game := smallTree()
	g := New[string, string, int](game, "root", true, WithPruning(false))
	is.NoErr(g.Compute(2))
	_, err := g.Progress("b")
	is.NoErr(err)
	slots := len(g.arena.nodes)
	is.Equal(len(g.arena.free), 4)

	game.moves["b1"] = []string{"c1"}
	is.NoErr(g.Compute(3))
	is.True(g.Contains("c1"))
	is.Equal(len(g.arena.nodes), slots)
	is.Equal(len(g.arena.free), 3)
	is.NoErr(g.Verify())
}
