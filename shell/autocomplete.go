package shell

import (
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/domino14/fourgraph/connect4"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"new": {
		Args: []string{"first", "second"},
	},
	"line": {
		Options: []string{"-depth"},
	},
	"autoplay": {
		Options: []string{"-games", "-threads", "-depth", "-depth2", "-logfile"},
		Args:    []string{"stop"},
	},
	"help": {
		Args: []string{"play", "hint", "line", "autoplay", "dot"},
	},
}

var commandNames = []string{
	"help", "new", "play", "go", "hint", "line", "show", "score", "stats",
	"gc", "verify", "dot", "spectate", "autoplay", "analyze", "results",
	"settings", "exit",
}

// openColumns lists the columns that can still be played in the current
// game.
func (c *ShellCompleter) openColumns() []string {
	if c.sc.graph == nil {
		return nil
	}
	s := c.sc.graph.State()
	cols := lo.Filter(lo.Range(connect4.Columns), func(col int, _ int) bool {
		return s.Height(col) < connect4.Rows
	})
	return lo.Map(cols, func(col int, _ int) string { return strconv.Itoa(col) })
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		if cmdName == "play" && len(fields) <= 2 {
			completions = c.openColumns()
		}
		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
