package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	g := &Game{
		Seed:      1<<63 + 5,
		Depths:    [2]int{5, 7},
		Winner:    1,
		Moves:     []int{3, 3, 4, 2, 6, 0},
		FinalHash: 0xdeadbeefcafe,
	}
	require.NoError(t, s.Save(ctx, g))
	assert.NotZero(t, g.ID)

	got, err := s.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	_, err = s.Get(ctx, g.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)
	defer s.Close()

	for _, w := range []int{0, 0, 1, -1, 0} {
		require.NoError(t, s.Save(ctx, &Game{Winner: w, Moves: []int{1}}))
	}
	tot, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Games: 5, Wins: [2]int{3, 1}, Draws: 1}, tot)
}

func TestMovesEncoding(t *testing.T) {
	assert.Equal(t, "0615", encodeMoves([]int{0, 6, 1, 5}))
	m, err := decodeMoves("0615")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 6, 1, 5}, m)
	_, err = decodeMoves("0x")
	assert.Error(t, err)
}
