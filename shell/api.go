package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/fourgraph/automatic"
	"github.com/domino14/fourgraph/config"
	"github.com/domino14/fourgraph/connect4"
	"github.com/domino14/fourgraph/minimax"
)

var (
	errNoGame   = errors.New("please start a game first with the `new` command")
	errGameOver = errors.New("the game is over; start a new one with `new`")
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func msg(message string) *Response {
	return &Response{message: message}
}

// depthArg reads an optional depth from the first argument.
func (sc *ShellController) depthArg(cmd *shellcmd) (int, error) {
	var d int
	var err error
	if len(cmd.args) == 0 {
		d, err = cmd.options.IntDefault("depth", sc.config.GetInt(config.ConfigDepth))
		if err != nil {
			return 0, fmt.Errorf("bad -depth: %w", err)
		}
	} else if d, err = strconv.Atoi(cmd.args[0]); err != nil {
		return 0, fmt.Errorf("bad depth %q: %w", cmd.args[0], err)
	}
	if d < 1 {
		return 0, errors.New("depth must be at least 1")
	}
	return d, nil
}

func (sc *ShellController) state() connect4.State {
	return sc.graph.State()
}

func (sc *ShellController) gameOver() bool {
	return connect4.GameOver(sc.state())
}

func playerName(p int) string {
	if p == 0 {
		return "o"
	}
	return "x"
}

// display renders the board and whose turn it is.
func (sc *ShellController) display() string {
	s := sc.state()
	var sb strings.Builder
	sb.WriteString(s.String())
	sb.WriteString("\n")
	if len(sc.moves) > 0 {
		moves := lo.Map(sc.moves, func(c int, _ int) string { return strconv.Itoa(c) })
		fmt.Fprintf(&sb, "Moves: %s\n", strings.Join(moves, " "))
	}
	switch {
	case connect4.Winner(s) >= 0:
		w := connect4.Winner(s)
		who := "engine"
		if w == sc.human {
			who = "you"
		}
		fmt.Fprintf(&sb, "Game over: %s (%s) won.", playerName(w), who)
	case sc.gameOver():
		sb.WriteString("Game over: draw.")
	default:
		who := "engine"
		if int(s.Turn) == sc.human {
			who = "you"
		}
		fmt.Fprintf(&sb, "%s to move (%s).", playerName(int(s.Turn)), who)
	}
	return sb.String()
}

// commitMove plays col for the side to move, and collects garbage once the
// graph holds more nodes than the budget allows.
func (sc *ShellController) commitMove(col int) error {
	if sc.gameOver() {
		return errGameOver
	}
	if _, err := sc.graph.Progress(col); err != nil {
		return err
	}
	sc.moves = append(sc.moves, col)
	if live := sc.graph.Stats().Live; live > sc.nodeBudget {
		freed := sc.graph.CollectGarbage()
		log.Debug().Int("live-nodes", live).Int("collected", freed).Msg("collected-garbage")
	}
	return nil
}

// engineMove searches the position to depth and plays the best column.
func (sc *ShellController) engineMove(depth int) (int, error) {
	if sc.gameOver() {
		return -1, errGameOver
	}
	if err := sc.graph.Compute(depth); err != nil {
		return -1, err
	}
	col := sc.graph.Choose(-1)
	if col < 0 {
		return -1, errGameOver
	}
	log.Debug().Int("column", col).Int("score", sc.graph.Score()).Int("depth", depth).Msg("engine-move")
	return col, sc.commitMove(col)
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	humanFirst := sc.config.GetBool(config.ConfigHumanFirst)
	if len(cmd.args) > 0 {
		switch cmd.args[0] {
		case "first":
			humanFirst = true
		case "second":
			humanFirst = false
		default:
			return nil, fmt.Errorf("new [first|second], not %q", cmd.args[0])
		}
	}
	sc.rules = connect4.NewRules(sc.config.GetUint64(config.ConfigSeed))
	sc.rules.Shuffle = sc.config.GetBool(config.ConfigShuffle)
	sc.graph = connect4.NewGraph(sc.rules, minimax.WithPruning(sc.config.GetBool(config.ConfigPruning)))
	sc.moves = nil
	sc.human = 0
	if !humanFirst {
		sc.human = 1
		if _, err := sc.engineMove(sc.config.GetInt(config.ConfigDepth)); err != nil {
			return nil, err
		}
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("play <column>")
	}
	col, err := strconv.Atoi(cmd.args[0])
	if err != nil || col < 0 || col >= connect4.Columns {
		return nil, fmt.Errorf("column must be 0 to %d", connect4.Columns-1)
	}
	if int(sc.state().Turn) != sc.human {
		return nil, errors.New("it is the engine's turn; use `go`")
	}
	if err := sc.commitMove(col); err != nil {
		return nil, err
	}
	if !sc.gameOver() {
		if _, err := sc.engineMove(sc.config.GetInt(config.ConfigDepth)); err != nil {
			return nil, err
		}
	}
	return msg(sc.display()), nil
}

// engineTurn lets the engine move for whoever is on turn.
func (sc *ShellController) engineTurn(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	depth, err := sc.depthArg(cmd)
	if err != nil {
		return nil, err
	}
	col, err := sc.engineMove(depth)
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("Engine plays %d\n%s", col, sc.display())), nil
}

func heightString(h int32) string {
	switch h {
	case minimax.Unknown:
		return "?"
	case minimax.Terminal:
		return "final"
	}
	return strconv.Itoa(int(h))
}

func scoreString(v int) string {
	switch {
	case v >= connect4.Threshold:
		return fmt.Sprintf("%d (o wins)", v)
	case v <= -connect4.Threshold:
		return fmt.Sprintf("%d (x wins)", v)
	}
	return strconv.Itoa(v)
}

func (sc *ShellController) hint(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	if sc.gameOver() {
		return nil, errGameOver
	}
	depth, err := sc.depthArg(cmd)
	if err != nil {
		return nil, err
	}
	if err := sc.graph.Compute(depth); err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-8s%-20s%s\n", "Column", "Score", "Searched")
	for _, b := range sc.graph.Branches() {
		fmt.Fprintf(&sb, "%-8d%-20s%s\n", b.Choice, scoreString(b.Score), heightString(b.Height))
	}
	fmt.Fprintf(&sb, "Best: %d", sc.graph.Choose(-1))
	return msg(sb.String()), nil
}

// line searches the position reached by a sequence of columns from the
// current one, leaving the root where it is.
func (sc *ShellController) line(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	if len(cmd.args) == 0 {
		return nil, errors.New("line <column>... [-depth n]")
	}
	depth, err := cmd.options.IntDefault("depth", sc.config.GetInt(config.ConfigDepth))
	if err != nil {
		return nil, err
	}
	m := sc.graph.Marker()
	for _, a := range cmd.args {
		col, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("bad column %q", a)
		}
		if err := m.Descend(col); err != nil {
			return nil, err
		}
	}
	if err := sc.graph.ComputeAt(depth, m); err != nil {
		return nil, err
	}
	s, err := m.State()
	if err != nil {
		return nil, err
	}
	score, height, err := m.Score()
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%s\nScore: %s, searched: %s", s.String(), scoreString(score), heightString(height))), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) score(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	return msg(fmt.Sprintf("Score: %s, searched: %s",
		scoreString(sc.graph.Score()), heightString(sc.graph.Height()))), nil
}

func (sc *ShellController) stats(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	st := sc.graph.Stats()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Live nodes:   %d (budget %d)\n", st.Live, sc.nodeBudget)
	fmt.Fprintf(&sb, "Table:        %d entries, %d hits\n", st.Table, st.TableHits)
	fmt.Fprintf(&sb, "Expansions:   %d\n", st.Expansions)
	fmt.Fprintf(&sb, "Evaluations:  %d\n", st.Evaluations)
	fmt.Fprintf(&sb, "Cutoffs:      %d\n", st.Cutoffs)
	fmt.Fprintf(&sb, "Released:     %d\n", st.Released)
	fmt.Fprintf(&sb, "Collected:    %d", st.Collected)
	return msg(sb.String()), nil
}

func (sc *ShellController) gc(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	freed := sc.graph.CollectGarbage()
	return msg(fmt.Sprintf("Collected %d nodes, %d left", freed, sc.graph.Stats().Live)), nil
}

func (sc *ShellController) verify(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	if err := sc.graph.Verify(); err != nil {
		return nil, err
	}
	return msg("Graph is consistent"), nil
}

func (sc *ShellController) dot(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		return nil, errNoGame
	}
	if len(cmd.args) == 0 {
		return nil, errors.New("dot <file> [depth]")
	}
	depth := 2
	if len(cmd.args) > 1 {
		d, err := strconv.Atoi(cmd.args[1])
		if err != nil {
			return nil, err
		}
		depth = d
	}
	f, err := os.Create(cmd.args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := sc.graph.WriteDot(f, depth); err != nil {
		return nil, err
	}
	return msg("Wrote " + cmd.args[0]), nil
}

// spectate has the engine play both sides until the game ends.
func (sc *ShellController) spectate(cmd *shellcmd) (*Response, error) {
	if sc.graph == nil {
		if _, err := sc.newGame(&shellcmd{cmd: "new", options: CmdOptions{}}); err != nil {
			return nil, err
		}
	}
	depth, err := sc.depthArg(cmd)
	if err != nil {
		return nil, err
	}
	for !sc.gameOver() {
		col, err := sc.engineMove(depth)
		if err != nil {
			return nil, err
		}
		sc.showMessage(fmt.Sprintf("%s plays %d", playerName(1-int(sc.state().Turn)), col))
	}
	return msg(sc.display()), nil
}

// autoplay starts a batch of engine games in the background, or stops the
// running one.
func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 && cmd.args[0] == "stop" {
		if sc.autoplayCancel == nil {
			return nil, errors.New("autoplay is not running")
		}
		sc.stopAutoplay()
		return msg("Autoplay stopped"), nil
	}
	if sc.autoplayDone != nil {
		select {
		case <-sc.autoplayDone:
		default:
			return nil, automatic.ErrAlreadyPlaying
		}
	}
	for opt, key := range map[string]string{
		"games":   config.ConfigGames,
		"threads": config.ConfigThreads,
		"depth":   config.ConfigDepth,
		"depth2":  config.ConfigDepth2,
	} {
		if v := cmd.options.String(opt); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("-%s must be a positive number", opt)
			}
			sc.config.Set(key, n)
		}
	}
	if f := cmd.options.String("logfile"); f != "" {
		sc.config.Set(config.ConfigLogFile, f)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sc.autoplayCancel = cancel
	sc.autoplayDone = done
	go func() {
		defer close(done)
		summary, err := automatic.PlayGames(ctx, sc.config, sc.store)
		if err != nil {
			sc.showError(err)
		}
		if summary != nil {
			sc.showMessage(summary.String())
		}
	}()
	return msg(fmt.Sprintf("Playing %d games; `autoplay stop` to stop",
		sc.config.GetInt(config.ConfigGames))), nil
}

// Wait blocks until a running autoplay finishes.
func (sc *ShellController) Wait() {
	if sc.autoplayDone != nil {
		<-sc.autoplayDone
	}
}

func (sc *ShellController) stopAutoplay() {
	if sc.autoplayCancel == nil {
		return
	}
	sc.autoplayCancel()
	<-sc.autoplayDone
	sc.autoplayCancel = nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	fn := sc.config.GetString(config.ConfigLogFile)
	if len(cmd.args) > 0 {
		fn = cmd.args[0]
	}
	if fn == "" {
		return nil, errors.New("analyze <logfile>")
	}
	out, err := automatic.AnalyzeLogFile(fn)
	if err != nil {
		return nil, err
	}
	return msg(out), nil
}

func (sc *ShellController) results(cmd *shellcmd) (*Response, error) {
	if sc.store == nil {
		return nil, errors.New("no results database; set " + config.ConfigResultsDB)
	}
	t, err := sc.store.Totals(context.Background())
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("Stored games: %d\no wins: %d\nx wins: %d\nDraws: %d",
		t.Games, t.Wins[0], t.Wins[1], t.Draws)), nil
}

func (sc *ShellController) settings(cmd *shellcmd) (*Response, error) {
	return msg(sc.config.SanitizedSettings()), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}
