package leaderboard

import (
	"context"
	"time"

	"memchess/internal/domain"
	"memchess/internal/store"
)

const entriesTable = "leaderboard_entries"

// Repository reads and writes leaderboard entries through the generic store
// contract so the same code runs on the memory, Redis, and Postgres
// backends.
type Repository struct {
	st store.Store
}

func NewRepository(st store.Store) *Repository {
	return &Repository{st: st}
}

func (r *Repository) Add(ctx context.Context, e domain.LeaderboardEntry) error {
	return r.st.Insert(ctx, entriesTable, entryToRow(e))
}

// ByDifficulty loads every entry in a difficulty partition, best-first.
// Rank computation needs the full partition, not a display slice.
func (r *Repository) ByDifficulty(ctx context.Context, difficulty string) ([]domain.LeaderboardEntry, error) {
	rows, err := r.st.Select(ctx, entriesTable, store.Row{"difficulty": difficulty}, orderSpec(), 0)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromRow(row))
	}
	Sort(entries)
	return entries, nil
}

// Top returns the display slice for a difficulty, capped at limit
// (DisplayLimit when limit is not positive).
func (r *Repository) Top(ctx context.Context, difficulty string, limit int) ([]domain.LeaderboardEntry, error) {
	entries, err := r.ByDifficulty(ctx, difficulty)
	if err != nil {
		return nil, err
	}
	return Top(entries, limit), nil
}

// Rank computes the 1-based rank the candidate would take within its
// difficulty partition.
func (r *Repository) Rank(ctx context.Context, candidate domain.LeaderboardEntry) (int, error) {
	entries, err := r.ByDifficulty(ctx, candidate.Difficulty)
	if err != nil {
		return 0, err
	}
	return RankOf(candidate, entries), nil
}

// orderSpec pushes the primary sort keys down to backends that can order
// server-side; exact tie-breaking (null handling included) is re-applied in
// Sort regardless.
func orderSpec() []store.Order {
	return []store.Order{
		{Column: "correct_pieces", Desc: true},
		{Column: "wrong_pieces"},
		{Column: "memorize_time_seconds"},
		{Column: "solution_time_seconds"},
	}
}

func entryToRow(e domain.LeaderboardEntry) store.Row {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	row := store.Row{
		"player_name":           e.PlayerName,
		"difficulty":            e.Difficulty,
		"piece_count":           e.PieceCount,
		"correct_pieces":        e.CorrectPieces,
		"memorize_time_seconds": e.MemorizeTimeSeconds,
		"solution_time_seconds": e.SolutionTimeSeconds,
		"created_at":            created.UTC().Format(time.RFC3339Nano),
	}
	if e.WrongPieces != nil {
		row["wrong_pieces"] = *e.WrongPieces
	} else {
		row["wrong_pieces"] = nil
	}
	return row
}

func entryFromRow(row store.Row) domain.LeaderboardEntry {
	var e domain.LeaderboardEntry
	e.PlayerName, _ = store.AsString(row["player_name"])
	e.Difficulty, _ = store.AsString(row["difficulty"])
	e.PieceCount, _ = store.AsInt(row["piece_count"])
	e.CorrectPieces, _ = store.AsInt(row["correct_pieces"])
	if row["wrong_pieces"] != nil {
		if w, ok := store.AsInt(row["wrong_pieces"]); ok {
			e.WrongPieces = &w
		}
	}
	e.MemorizeTimeSeconds, _ = store.AsFloat(row["memorize_time_seconds"])
	e.SolutionTimeSeconds, _ = store.AsFloat(row["solution_time_seconds"])
	e.CreatedAt, _ = store.AsTime(row["created_at"])
	return e
}
