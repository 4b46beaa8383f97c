// Package store saves finished self-play games to sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("game not found")

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	seed       TEXT NOT NULL,
	depth0     INTEGER NOT NULL,
	depth1     INTEGER NOT NULL,
	winner     INTEGER NOT NULL,
	plies      INTEGER NOT NULL,
	moves      TEXT NOT NULL,
	final_hash TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS games_winner ON games (winner);
`

// Game is the record of one finished game. Winner is the index of the
// winning player, or -1 for a draw.
type Game struct {
	ID        int64
	Seed      uint64
	Depths    [2]int
	Winner    int
	Moves     []int
	FinalHash uint64
}

// Totals counts results over all stored games.
type Totals struct {
	Games int
	Wins  [2]int
	Draws int
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" keeps it in
// memory for the life of the store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; an in-memory database also lives in a
	// single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("opened-results-db")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts g and sets its ID.
func (s *Store) Save(ctx context.Context, g *Game) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO games (seed, depth0, depth1, winner, plies, moves, final_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		strconv.FormatUint(g.Seed, 10), g.Depths[0], g.Depths[1], g.Winner,
		len(g.Moves), encodeMoves(g.Moves), strconv.FormatUint(g.FinalHash, 16))
	if err != nil {
		return fmt.Errorf("saving game: %w", err)
	}
	g.ID, err = res.LastInsertId()
	return err
}

// Get loads the game with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, seed, depth0, depth1, winner, moves, final_hash FROM games WHERE id = ?`, id)
	var (
		g     Game
		seed  string
		moves string
		hash  string
	)
	err := row.Scan(&g.ID, &seed, &g.Depths[0], &g.Depths[1], &g.Winner, &moves, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if g.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("game %d seed: %w", id, err)
	}
	if g.FinalHash, err = strconv.ParseUint(hash, 16, 64); err != nil {
		return nil, fmt.Errorf("game %d hash: %w", id, err)
	}
	if g.Moves, err = decodeMoves(moves); err != nil {
		return nil, fmt.Errorf("game %d moves: %w", id, err)
	}
	return &g, nil
}

// Totals sums up the results of every stored game.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	rows, err := s.db.QueryContext(ctx, `SELECT winner, COUNT(*) FROM games GROUP BY winner`)
	if err != nil {
		return t, err
	}
	defer rows.Close()
	for rows.Next() {
		var winner, n int
		if err := rows.Scan(&winner, &n); err != nil {
			return t, err
		}
		t.Games += n
		switch winner {
		case 0, 1:
			t.Wins[winner] += n
		default:
			t.Draws += n
		}
	}
	return t, rows.Err()
}

// encodeMoves stores the columns played as a string of digits.
func encodeMoves(moves []int) string {
	var sb strings.Builder
	for _, m := range moves {
		sb.WriteByte(byte('0' + m))
	}
	return sb.String()
}

func decodeMoves(s string) ([]int, error) {
	moves := make([]int, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("bad move %q at %d", c, i)
		}
		moves = append(moves, int(c-'0'))
	}
	return moves, nil
}
