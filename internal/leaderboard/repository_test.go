package leaderboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"memchess/internal/store"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(store.NewMemoryStore())
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	e := entry("alice", 7, intp(1), 11.5, 42.25)
	require.NoError(t, repo.Add(ctx, e))

	entries, err := repo.ByDifficulty(ctx, "normal")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	require.Equal(t, e.PlayerName, got.PlayerName)
	require.Equal(t, e.CorrectPieces, got.CorrectPieces)
	require.NotNil(t, got.WrongPieces)
	require.Equal(t, 1, *got.WrongPieces)
	require.Equal(t, e.MemorizeTimeSeconds, got.MemorizeTimeSeconds)
	require.Equal(t, e.SolutionTimeSeconds, got.SolutionTimeSeconds)
	require.False(t, got.CreatedAt.IsZero())
}

func TestRepositoryPartitionsByDifficulty(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	easy := entry("easy-player", 4, intp(0), 10, 10)
	easy.Difficulty = "easy"
	require.NoError(t, repo.Add(ctx, easy))
	require.NoError(t, repo.Add(ctx, entry("normal-player", 8, intp(0), 10, 10)))

	entries, err := repo.ByDifficulty(ctx, "easy")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "easy-player", entries[0].PlayerName)
}

func TestRepositoryTopAndRank(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.Add(ctx, entry("third", 5, intp(2), 10, 20)))
	require.NoError(t, repo.Add(ctx, entry("first", 8, intp(0), 9, 15)))
	require.NoError(t, repo.Add(ctx, entry("second", 8, intp(1), 9, 15)))

	top, err := repo.Top(ctx, "normal", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "first", top[0].PlayerName)
	require.Equal(t, "second", top[1].PlayerName)

	rank, err := repo.Rank(ctx, entry("me", 6, intp(0), 8, 8))
	require.NoError(t, err)
	require.Equal(t, 3, rank)

	rank, err = repo.Rank(ctx, entry("me", 9, intp(0), 8, 8))
	require.NoError(t, err)
	require.Equal(t, 1, rank)
}

func TestRepositoryKeepsNilWrongPieces(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.Add(ctx, entry("known", 5, intp(0), 10, 10)))
	require.NoError(t, repo.Add(ctx, entry("unknown", 5, nil, 5, 5)))

	entries, err := repo.ByDifficulty(ctx, "normal")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "known", entries[0].PlayerName)
	require.Nil(t, entries[1].WrongPieces)
}
