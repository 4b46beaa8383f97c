// Package bot plays Connect Four over the line protocol of the bot
// competitions: settings and field updates arrive on one stream, and every
// "action move" request is answered with a "place_disc" line.
package bot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/fourgraph/config"
	"github.com/domino14/fourgraph/connect4"
	"github.com/domino14/fourgraph/minimax"
)

var (
	ErrBadCommand = errors.New("bad command")
	ErrNotMyTurn  = errors.New("asked to move while the opponent is on turn")
)

// Settings are the match settings the referee sends before the game.
type Settings struct {
	Timebank     int
	TimePerMove  int
	PlayerNames  []string
	YourBot      string
	YourBotID    int
	FieldColumns int
	FieldRows    int
}

// me returns the player index the bot plays. Protocol id 1 moves first.
func (s Settings) me() int {
	if s.YourBotID == 2 {
		return 1
	}
	return 0
}

type Bot struct {
	config *config.Config
	out    io.Writer

	settings   Settings
	round      int
	timebank   int
	depth      int
	nodeBudget int

	rules *connect4.Rules
	graph *connect4.Graph
}

// NewBot returns a bot that writes its moves to out.
func NewBot(cfg *config.Config, out io.Writer) *Bot {
	bot := &Bot{
		config:     cfg,
		out:        out,
		settings:   Settings{YourBotID: 1, FieldColumns: connect4.Columns, FieldRows: connect4.Rows},
		depth:      cfg.GetInt(config.ConfigDepth),
		nodeBudget: cfg.NodeBudget(),
	}
	bot.newGame(connect4.State{})
	return bot
}

func (bot *Bot) newGame(s connect4.State) {
	bot.rules = connect4.NewRules(bot.config.GetUint64(config.ConfigSeed))
	bot.rules.Shuffle = bot.config.GetBool(config.ConfigShuffle)
	bot.graph = connect4.GraphFrom(bot.rules, s, minimax.WithPruning(bot.config.GetBool(config.ConfigPruning)))
}

// State returns the position the bot believes the game is in.
func (bot *Bot) State() connect4.State {
	return bot.graph.State()
}

func (bot *Bot) Settings() Settings {
	return bot.settings
}

// commit plays col in the graph and keeps it within the node budget.
func (bot *Bot) commit(col int) error {
	if _, err := bot.graph.Progress(col); err != nil {
		return err
	}
	if bot.graph.Stats().Live > bot.nodeBudget {
		bot.graph.CollectGarbage()
	}
	return nil
}

// Handle processes one line of the protocol.
func (bot *Bot) Handle(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "settings":
		if len(fields) < 3 {
			return fmt.Errorf("%w: %q", ErrBadCommand, line)
		}
		return bot.setting(fields[1], fields[2])
	case "update":
		if len(fields) < 4 || fields[1] != "game" {
			return fmt.Errorf("%w: %q", ErrBadCommand, line)
		}
		return bot.update(fields[2], fields[3])
	case "action":
		if len(fields) < 2 || fields[1] != "move" {
			return fmt.Errorf("%w: %q", ErrBadCommand, line)
		}
		if len(fields) > 2 {
			t, err := strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Errorf("%w: time %q", ErrBadCommand, fields[2])
			}
			bot.timebank = t
		}
		return bot.move(ctx)
	}
	return fmt.Errorf("%w: %q", ErrBadCommand, line)
}

func (bot *Bot) setting(key, value string) error {
	atoi := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: setting %v %q", ErrBadCommand, key, value)
		}
		*dst = n
		return nil
	}
	s := &bot.settings
	switch key {
	case "timebank":
		return atoi(&s.Timebank)
	case "time_per_move":
		return atoi(&s.TimePerMove)
	case "player_names":
		s.PlayerNames = strings.Split(value, ",")
	case "your_bot":
		s.YourBot = value
	case "your_botid":
		if err := atoi(&s.YourBotID); err != nil {
			return err
		}
		if s.YourBotID != 1 && s.YourBotID != 2 {
			return fmt.Errorf("%w: bot id %d", ErrBadCommand, s.YourBotID)
		}
	case "field_columns":
		if err := atoi(&s.FieldColumns); err != nil {
			return err
		}
		if s.FieldColumns != connect4.Columns {
			return fmt.Errorf("%w: only %d columns are supported", ErrBadCommand, connect4.Columns)
		}
	case "field_rows":
		if err := atoi(&s.FieldRows); err != nil {
			return err
		}
		if s.FieldRows != connect4.Rows {
			return fmt.Errorf("%w: only %d rows are supported", ErrBadCommand, connect4.Rows)
		}
	default:
		return fmt.Errorf("%w: setting %v", ErrBadCommand, key)
	}
	return nil
}

func (bot *Bot) update(key, value string) error {
	switch key {
	case "round":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: round %q", ErrBadCommand, value)
		}
		bot.round = n
		return nil
	case "field":
		return bot.field(value)
	}
	return fmt.Errorf("%w: update game %v", ErrBadCommand, key)
}

// field brings the graph in line with the referee's field. A single new
// opponent disc is committed as their move; any other difference makes the
// bot start over from the field.
func (bot *Bot) field(value string) error {
	discs, err := connect4.ParseField(value)
	if err != nil {
		return err
	}
	cur := bot.State()
	if discs == cur.Players {
		return nil
	}
	opp := 1 - bot.settings.me()
	added := discs[opp] &^ cur.Players[opp]
	if int(cur.Turn) == opp && discs[1-opp] == cur.Players[1-opp] &&
		discs[opp]&cur.Players[opp] == cur.Players[opp] && bits.OnesCount64(added) == 1 {
		col := bits.TrailingZeros64(added) % connect4.Columns
		if err := bot.commit(col); err != nil {
			return err
		}
		log.Debug().Int("column", col).Int("score", bot.graph.Score()).Msg("their-move")
		return nil
	}
	s, err := connect4.FromDiscs(discs)
	if err != nil {
		return err
	}
	log.Warn().Int("round", bot.round).Msg("field-out-of-sync-restarting")
	bot.newGame(s)
	return nil
}

// move searches the position and answers with the chosen column.
func (bot *Bot) move(ctx context.Context) error {
	s := bot.State()
	if int(s.Turn) != bot.settings.me() {
		return ErrNotMyTurn
	}
	if connect4.GameOver(s) {
		return fmt.Errorf("asked to move in a finished game")
	}
	// A cancelled search stops between depths and leaves the last one intact.
	// Any other failure leaves the root's children half scored.
	depth, err := minimax.Deepen(ctx, bot.graph, bot.depth)
	if err != nil && (depth == 0 || ctx.Err() == nil) {
		return err
	}
	col := bot.graph.Choose(-1)
	if col < 0 {
		return fmt.Errorf("no move found")
	}
	if _, err := fmt.Fprintf(bot.out, "place_disc %d\n", col); err != nil {
		return err
	}
	log.Debug().Int("column", col).Int("depth", depth).Int("score", bot.graph.Score()).
		Int("round", bot.round).Int("timebank", bot.timebank).Msg("my-move")
	return bot.commit(col)
}

// Run reads protocol lines from r until it is exhausted or ctx is done.
// Bad lines are logged and skipped.
func (bot *Bot) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if err := bot.Handle(ctx, line); err != nil {
			log.Err(err).Str("line", line).Msg("could-not-handle-line")
		}
	}
	return scanner.Err()
}
