package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/fourgraph/config"
	"github.com/domino14/fourgraph/connect4"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testController(t *testing.T, args ...string) (*ShellController, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	base := []string{"--depth", "2", "--node-budget", "5000", "--seed", "42"}
	if err := cfg.Load(append(base, args...)); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return newController(cfg, &out), &out
}

func run(t *testing.T, sc *ShellController, line string) string {
	t.Helper()
	resp, err := sc.handle(line)
	if err != nil {
		t.Fatalf("%q: %v", line, err)
	}
	if resp == nil {
		return ""
	}
	return resp.message
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -logfile /path/to/log.txt",
			&shellcmd{"autoplay", nil, CmdOptions{"logfile": {"/path/to/log.txt"}}},
			nil},
		{"autoplay stop",
			&shellcmd{"autoplay", []string{"stop"}, CmdOptions{}},
			nil},
		{"line 3 4 -depth 5 ",
			&shellcmd{"line", []string{"3", "4"}, CmdOptions{"depth": {"5"}}},
			nil},
		{`dot "/tmp/my graph.dot" 3`,
			&shellcmd{"dot", []string{"/tmp/my graph.dot", "3"}, CmdOptions{}},
			nil},
		{"line 3 -depth", nil, errWrongOptionSyntax},
	}
	for _, tc := range cases {
		cmd, err := extractFields(tc.line)
		is.Equal(cmd, tc.expCmd)
		is.Equal(err, tc.expErr)
	}
}

func TestNewGame(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)

	out := run(t, sc, "new first")
	is.True(strings.Contains(out, "o to move (you)"))
	is.Equal(len(sc.moves), 0)

	out = run(t, sc, "new second")
	is.True(strings.Contains(out, "x to move (you)"))
	is.Equal(len(sc.moves), 1)
	is.Equal(sc.state().Plies(), 1)

	_, err := sc.handle("new third")
	is.True(err != nil)
}

func TestPlayGetsAnAnswer(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	run(t, sc, "new first")

	run(t, sc, "play 3")
	is.Equal(len(sc.moves), 2)
	is.Equal(sc.moves[0], 3)
	is.Equal(sc.state().Plies(), 2)
	is.Equal(int(sc.state().Turn), sc.human)
	is.NoErr(sc.graph.Verify())
}

func TestPlayErrors(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)

	_, err := sc.handle("play 3")
	is.Equal(err, errNoGame)

	run(t, sc, "new first")
	_, err = sc.handle("play 9")
	is.True(err != nil)
	_, err = sc.handle("play x")
	is.True(err != nil)
	_, err = sc.handle("play")
	is.True(err != nil)

	_, err = sc.handle("go -depth 0")
	is.True(err != nil)
	is.True(err != errGameOver)
	is.Equal(len(sc.moves), 0)

	// The engine moves for us, so it is the engine's turn.
	run(t, sc, "go")
	_, err = sc.handle("play 3")
	is.True(err != nil)
	is.Equal(len(sc.moves), 1)
}

func TestHint(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	run(t, sc, "new")

	out := run(t, sc, "hint 2")
	lines := strings.Split(out, "\n")
	// header, seven columns and the best one
	is.Equal(len(lines), 9)
	is.True(strings.HasPrefix(lines[8], "Best: "))
	is.Equal(sc.graph.Height(), int32(2))
	is.Equal(len(sc.moves), 0)

	_, err := sc.handle("hint 0")
	is.True(err != nil)
}

func TestLineLeavesTheRoot(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	run(t, sc, "new")

	out := run(t, sc, "line 3 3 -depth 2")
	is.True(strings.Contains(out, "Score: "))
	is.Equal(sc.state(), connect4.State{})
	is.Equal(len(sc.moves), 0)

	_, err := sc.handle("line 3 3 3 3 3 3 3")
	is.True(err != nil) // the column is full
}

func TestSpectate(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)

	resp := run(t, sc, "spectate 2")
	is.True(sc.gameOver())
	is.True(strings.Contains(resp, "Game over"))
	is.True(strings.Contains(out.String(), " plays "))
	is.NoErr(sc.graph.Verify())

	_, err := sc.handle("go")
	is.Equal(err, errGameOver)
}

func TestGraphCommands(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)

	_, err := sc.handle("stats")
	is.Equal(err, errNoGame)

	run(t, sc, "new")
	run(t, sc, "hint 3")
	is.True(strings.Contains(run(t, sc, "score"), "searched: 3"))
	is.True(strings.Contains(run(t, sc, "stats"), "Expansions:"))
	is.True(strings.Contains(run(t, sc, "gc"), "Collected 0 nodes"))
	is.Equal(run(t, sc, "verify"), "Graph is consistent")

	fn := filepath.Join(t.TempDir(), "graph.dot")
	run(t, sc, "dot "+fn+" 1")
	dat, err := os.ReadFile(fn)
	is.NoErr(err)
	is.True(strings.HasPrefix(string(dat), "digraph {"))
	is.Equal(strings.Count(string(dat), "->"), connect4.Columns)
}

func TestCollectsOverBudget(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t, "--node-budget", "1")
	run(t, sc, "new first")
	run(t, sc, "play 3")
	run(t, sc, "play 3")
	is.NoErr(sc.graph.Verify())
	is.Equal(len(sc.moves), 4)
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	is.True(strings.Contains(run(t, sc, "help"), "Commands:"))
	is.True(strings.HasPrefix(run(t, sc, "help play"), "play <column>"))
	_, err := sc.handle("help nosuchtopic")
	is.True(err != nil)
	_, err = sc.handle("frobnicate")
	is.True(err != nil)
}

func TestSettings(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	is.True(strings.Contains(run(t, sc, "settings"), "depth: 2"))
}

func TestAutoplay(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)
	fn := filepath.Join(t.TempDir(), "games.csv")

	run(t, sc, "autoplay -games 2 -threads 1 -depth 1 -depth2 2 -logfile "+fn)
	sc.Wait()
	is.Equal(sc.config.GetInt(config.ConfigDepth2), 2)
	is.True(strings.Contains(out.String(), "Games played: 2"))

	is.True(strings.Contains(run(t, sc, "analyze "+fn), "Games: 2"))

	_, err := sc.handle("results")
	is.True(err != nil) // no database configured
}

func TestExecuteExit(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)
	sig := make(chan os.Signal, 1)

	sc.Execute(sig, "frobnicate")
	is.True(strings.HasPrefix(out.String(), "Error: "))

	sc.Execute(sig, "exit")
	is.Equal(<-sig, syscall.SIGINT)
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	c := NewShellCompleter(sc)

	matches, n := c.Do([]rune("spec"), 4)
	is.Equal(n, 4)
	is.Equal(matches, [][]rune{[]rune("tate")})

	matches, _ = c.Do([]rune("new "), 4)
	is.Equal(len(matches), 2)

	matches, _ = c.Do([]rune("play "), 5)
	is.Equal(len(matches), 0)
	run(t, sc, "new")
	matches, _ = c.Do([]rune("play "), 5)
	is.Equal(len(matches), connect4.Columns)
}
