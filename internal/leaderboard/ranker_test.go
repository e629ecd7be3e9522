package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"memchess/internal/domain"
)

func intp(v int) *int { return &v }

func entry(name string, correct int, wrong *int, memorize, solution float64) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		PlayerName:          name,
		Difficulty:          "normal",
		PieceCount:          8,
		CorrectPieces:       correct,
		WrongPieces:         wrong,
		MemorizeTimeSeconds: memorize,
		SolutionTimeSeconds: solution,
	}
}

func TestSortOrdering(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		entry("slow-solve", 5, intp(1), 10, 30),
		entry("best", 6, intp(0), 8, 12),
		entry("wrong-unknown", 5, nil, 5, 5),
		entry("fast-solve", 5, intp(1), 10, 20),
		entry("fast-memorize", 5, intp(1), 9, 40),
		entry("fewer-wrong", 5, intp(0), 12, 50),
	}
	Sort(entries)

	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.PlayerName
	}
	want := []string{
		"best",          // most correct
		"fewer-wrong",   // fewest wrong among 5-correct
		"fast-memorize", // then faster memorization
		"fast-solve",    // then faster reconstruction
		"slow-solve",
		"wrong-unknown", // unknown wrong count sorts last
	}
	require.Equal(t, want, got)
}

func TestSortStableOnExactTies(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		entry("first", 5, intp(1), 10, 20),
		entry("second", 5, intp(1), 10, 20),
	}
	Sort(entries)
	require.Equal(t, "first", entries[0].PlayerName)
	require.Equal(t, "second", entries[1].PlayerName)
}

func TestRankOf(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		entry("a", 5, intp(1), 10, 20),
		entry("b", 4, intp(2), 10, 20),
		entry("c", 6, intp(1), 10, 20),
	}

	candidate := entry("me", 6, intp(0), 8, 8)
	require.Equal(t, 1, RankOf(candidate, entries))

	middling := entry("me", 5, intp(1), 10, 25)
	require.Equal(t, 3, RankOf(middling, entries))

	// An exact tie does not count as preceding: tied entries share the rank.
	tied := entry("me", 5, intp(1), 10, 20)
	require.Equal(t, 2, RankOf(tied, entries))
}

func TestTopLimits(t *testing.T) {
	var entries []domain.LeaderboardEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, entry("p", i, intp(0), 10, 10))
	}

	top := Top(entries, 3)
	require.Len(t, top, 3)
	require.Equal(t, 9, top[0].CorrectPieces)
	require.Equal(t, 7, top[2].CorrectPieces)

	// The input slice order is untouched.
	require.Equal(t, 0, entries[0].CorrectPieces)

	require.Len(t, Top(entries, 0), 10)
}
