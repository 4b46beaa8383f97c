// Package connect4 provides Connect Four rules for the minimax graph: a
// bitboard position, the window heuristic and a move generator.
package connect4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/cespare/xxhash"
)

const (
	Columns = 7
	Rows    = 6
	Cells   = Columns * Rows
)

var ErrBadField = errors.New("malformed field")

// State is a Connect Four position. Bit row*7+col of Players[p] is set when
// player p has a disc there; row 0 is the bottom row. Player 0 moves first
// and is the maximizing side. End is set once a move completed four in a
// row.
type State struct {
	Players [2]uint64
	Turn    uint8
	End     bool
}

func bit(row, col int) uint64 {
	return uint64(1) << (row*Columns + col)
}

// windows holds every line of four cells a player can complete, and
// cellWindows the ones through each cell.
var windows, cellWindows = buildWindows()

func buildWindows() ([]uint64, [Cells][]uint64) {
	var all []uint64
	var byCell [Cells][]uint64
	// right, up, up-right, up-left
	dirs := [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		for row := 0; row < Rows; row++ {
			for col := 0; col < Columns; col++ {
				endRow, endCol := row+3*d[0], col+3*d[1]
				if endRow >= Rows || endCol < 0 || endCol >= Columns {
					continue
				}
				var w uint64
				for i := 0; i < 4; i++ {
					w |= bit(row+i*d[0], col+i*d[1])
				}
				all = append(all, w)
				for i := 0; i < 4; i++ {
					cell := (row+i*d[0])*Columns + col + i*d[1]
					byCell[cell] = append(byCell[cell], w)
				}
			}
		}
	}
	return all, byCell
}

// Occupied returns the discs of both players.
func (s State) Occupied() uint64 {
	return s.Players[0] | s.Players[1]
}

// Plies returns the number of discs on the board.
func (s State) Plies() int {
	return bits.OnesCount64(s.Occupied())
}

// Height returns the number of discs in col.
func (s State) Height(col int) int {
	occ := s.Occupied()
	row := 0
	for row < Rows && occ&bit(row, col) != 0 {
		row++
	}
	return row
}

// Drop plays a disc for the side to move into col. It returns the new
// state and the row the disc landed on, or ok=false when the column is
// full, out of range, or the game is over.
func (s State) Drop(col int) (next State, row int, ok bool) {
	if s.End || col < 0 || col >= Columns {
		return s, 0, false
	}
	row = s.Height(col)
	if row >= Rows {
		return s, 0, false
	}
	next = s
	b := bit(row, col)
	next.Players[s.Turn] |= b
	next.Turn = 1 - s.Turn
	next.End = completes(next.Players[s.Turn], row*Columns+col)
	return next, row, true
}

// completes tells whether the disc on cell finishes a line of four.
func completes(discs uint64, cell int) bool {
	for _, w := range cellWindows[cell] {
		if discs&w == w {
			return true
		}
	}
	return false
}

func (s State) String() string {
	var sb strings.Builder
	sb.WriteString("0123456\n")
	for row := Rows - 1; row >= 0; row-- {
		for col := 0; col < Columns; col++ {
			switch b := bit(row, col); {
			case s.Players[0]&b != 0:
				sb.WriteByte('o')
			case s.Players[1]&b != 0:
				sb.WriteByte('x')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("0123456\n")
	return sb.String()
}

// Hash returns a stable digest of the position.
func (s State) Hash() uint64 {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[0:], s.Players[0])
	binary.LittleEndian.PutUint64(buf[8:], s.Players[1])
	buf[16] = s.Turn
	if s.End {
		buf[16] |= 2
	}
	return xxhash.Sum64(buf[:])
}

// ParseField decodes a field as sent by the bot protocol: 42 comma
// separated cells, top row first, where 0 is empty and 1 or 2 is the id
// of the player owning the disc. Player id 1 maps to Players[0].
func ParseField(field string) ([2]uint64, error) {
	var discs [2]uint64
	cells := strings.Split(strings.TrimSpace(field), ",")
	if len(cells) != Cells {
		return discs, fmt.Errorf("%w: %d cells", ErrBadField, len(cells))
	}
	for i, c := range cells {
		row := Rows - 1 - i/Columns
		col := i % Columns
		switch strings.TrimSpace(c) {
		case "0", ".":
		case "1":
			discs[0] |= bit(row, col)
		case "2":
			discs[1] |= bit(row, col)
		default:
			return discs, fmt.Errorf("%w: cell %d is %q", ErrBadField, i, c)
		}
	}
	return discs, nil
}

// FromDiscs builds the position holding the given discs. The side to move
// follows from the disc counts, since player 0 moves first.
func FromDiscs(discs [2]uint64) (State, error) {
	var s State
	if discs[0]&discs[1] != 0 || (discs[0]|discs[1])&^full != 0 {
		return s, fmt.Errorf("%w: overlapping discs", ErrBadField)
	}
	occ := discs[0] | discs[1]
	for row := 1; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if occ&bit(row, col) != 0 && occ&bit(row-1, col) == 0 {
				return s, fmt.Errorf("%w: floating disc in column %d", ErrBadField, col)
			}
		}
	}
	n0, n1 := bits.OnesCount64(discs[0]), bits.OnesCount64(discs[1])
	if n0 != n1 && n0 != n1+1 {
		return s, fmt.Errorf("%w: %d and %d discs", ErrBadField, n0, n1)
	}
	s.Players = discs
	s.Turn = uint8(n0 - n1)
	won := [2]bool{}
	for _, w := range windows {
		for p := range discs {
			if discs[p]&w == w {
				won[p] = true
			}
		}
	}
	switch {
	case won[0] && won[1]:
		return s, ErrBothPlayersWon
	case won[0] || won[1]:
		// the winner made the last move
		if won[0] != (s.Turn == 1) {
			return s, fmt.Errorf("%w: the loser moved after four in a row", ErrBadField)
		}
		s.End = true
	}
	return s, nil
}
