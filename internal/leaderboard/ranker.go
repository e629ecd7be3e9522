package leaderboard

import (
	"sort"

	"memchess/internal/domain"
)

// DisplayLimit is how many entries per difficulty are materialized for
// display. Rank computation is a count over all entries and stays correct
// for candidates beyond this cutoff.
const DisplayLimit = 200

// Precedes reports whether a strictly outranks b under the leaderboard total
// order: more correct pieces first, then fewer wrong pieces (unknown wrong
// counts sort after known ones), then faster memorization, then faster
// reconstruction.
func Precedes(a, b domain.LeaderboardEntry) bool {
	if a.CorrectPieces != b.CorrectPieces {
		return a.CorrectPieces > b.CorrectPieces
	}
	if c := compareWrong(a.WrongPieces, b.WrongPieces); c != 0 {
		return c < 0
	}
	if a.MemorizeTimeSeconds != b.MemorizeTimeSeconds {
		return a.MemorizeTimeSeconds < b.MemorizeTimeSeconds
	}
	return a.SolutionTimeSeconds < b.SolutionTimeSeconds
}

func compareWrong(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

// Sort orders entries best-first. The order is total and deterministic for
// fixed input order; exact ties keep their relative input positions.
func Sort(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Precedes(entries[i], entries[j])
	})
}

// RankOf returns the 1-based rank of candidate against entries: one plus the
// number of entries that strictly precede it. Independent of any display
// truncation.
func RankOf(candidate domain.LeaderboardEntry, entries []domain.LeaderboardEntry) int {
	rank := 1
	for _, e := range entries {
		if Precedes(e, candidate) {
			rank++
		}
	}
	return rank
}

// Top returns the best entries, capped at limit (DisplayLimit when limit
// is not positive). The input slice is not modified.
func Top(entries []domain.LeaderboardEntry, limit int) []domain.LeaderboardEntry {
	if limit <= 0 {
		limit = DisplayLimit
	}
	sorted := append([]domain.LeaderboardEntry(nil), entries...)
	Sort(sorted)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
