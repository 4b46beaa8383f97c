// Package shell is the interactive front end of fourgraph: a readline loop
// for playing Connect Four against the engine and poking at its graph.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/fourgraph/config"
	"github.com/domino14/fourgraph/connect4"
	"github.com/domino14/fourgraph/store"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errQuit              = errors.New("sending quit signal")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// extractFields splits a line into a command, its positional arguments and
// its -key value options.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "-") && len(f) > 1 {
			if _, err := strconv.Atoi(f); err == nil {
				// a negative number
				args = append(args, f)
				continue
			}
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := strings.TrimPrefix(f, "-")
			options[key] = append(options[key], fields[i+1])
			i++
			continue
		}
		args = append(args, f)
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

type ShellController struct {
	l          *readline.Instance
	out        io.Writer
	config     *config.Config
	execPath   string
	gitVersion string

	rules      *connect4.Rules
	graph      *connect4.Graph
	human      int
	moves      []int
	nodeBudget int

	store *store.Store

	autoplayCancel context.CancelFunc
	autoplayDone   chan struct{}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// newController returns a controller writing to out, with no line editor.
func newController(cfg *config.Config, out io.Writer) *ShellController {
	return &ShellController{
		out:        out,
		config:     cfg,
		nodeBudget: cfg.NodeBudget(),
	}
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	prompt := "fourgraph>"
	sc := newController(cfg, os.Stderr)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31m" + prompt + "\033[0m ",
		HistoryFile:     "/tmp/fourgraph_readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	sc.execPath = execPath
	sc.gitVersion = gitVersion

	if fn := cfg.GetString(config.ConfigResultsDB); fn != "" {
		st, err := store.Open(context.Background(), fn)
		if err != nil {
			log.Err(err).Str("file", fn).Msg("could-not-open-results-db")
		} else {
			sc.store = st
		}
	}
	return sc
}

func (sc *ShellController) handle(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "bye":
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "new", "n":
		return sc.newGame(cmd)
	case "play", "p":
		return sc.play(cmd)
	case "go", "g":
		return sc.engineTurn(cmd)
	case "hint":
		return sc.hint(cmd)
	case "line":
		return sc.line(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "score":
		return sc.score(cmd)
	case "stats":
		return sc.stats(cmd)
	case "gc":
		return sc.gc(cmd)
	case "verify":
		return sc.verify(cmd)
	case "dot":
		return sc.dot(cmd)
	case "spectate":
		return sc.spectate(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "results":
		return sc.results(cmd)
	case "settings":
		return sc.settings(cmd)
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(line))
		return nil, fmt.Errorf("command %v not found", strconv.Quote(cmd.cmd))
	}
}

// Execute runs a single command line.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.handle(line)
	if errors.Is(err, errQuit) {
		sig <- syscall.SIGINT
		return
	}
	if err != nil {
		sc.showError(err)
		return
	}
	if resp != nil {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.handle(line)
		if errors.Is(err, errQuit) {
			sig <- syscall.SIGINT
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops a running autoplay and closes the results database.
func (sc *ShellController) Cleanup() {
	sc.stopAutoplay()
	if sc.store != nil {
		if err := sc.store.Close(); err != nil {
			log.Err(err).Msg("closing-results-db")
		}
	}
	log.Info().Msg("cleanup-done")
}
