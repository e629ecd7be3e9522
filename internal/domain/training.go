package domain

import "time"

// TrainingProfile is the persistent per-player record, updated once per
// completed session.
type TrainingProfile struct {
	PlayerName   string
	Rating       int
	Streak       int
	GamesPlayed  int
	BestAccuracy int
	LastPlayedAt time.Time
	UpdatedAt    time.Time
	CreatedAt    time.Time
}

// LeaderboardEntry is an immutable submitted-session record owned by the
// external store. WrongPieces is nil for legacy rows that predate the field.
type LeaderboardEntry struct {
	PlayerName          string
	Difficulty          string
	PieceCount          int
	CorrectPieces       int
	WrongPieces         *int
	MemorizeTimeSeconds float64
	SolutionTimeSeconds float64
	CreatedAt           time.Time
}
