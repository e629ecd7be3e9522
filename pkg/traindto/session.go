package traindto

import "time"

// Placement is one piece on a board, in textual vocabulary ("e4", "white",
// "knight").
type Placement struct {
	Square string `json:"square"`
	Color  string `json:"color"`
	Type   string `json:"type"`
}

type Config struct {
	PieceCount      int     `json:"piece_count"`
	MemorizeSeconds float64 `json:"memorize_seconds"`
	Difficulty      string  `json:"difficulty"`
}

type Accuracy struct {
	AccuracyPercent     int `json:"accuracy_percent"`
	CorrectPlacements   int `json:"correct_placements"`
	TotalOriginalPieces int `json:"total_original_pieces"`
	ExtraPieces         int `json:"extra_pieces"`
}

// SessionState is the read model of the running session. The original board
// is only exposed during MEMORIZATION and RESULT; during SOLUTION the client
// sees just its own reconstruction.
type SessionState struct {
	SessionID         string      `json:"session_id"`
	Phase             string      `json:"phase"`
	Config            Config      `json:"config"`
	Original          []Placement `json:"original,omitempty"`
	OriginalFEN       string      `json:"original_fen,omitempty"`
	Solution          []Placement `json:"solution,omitempty"`
	SolutionFEN       string      `json:"solution_fen,omitempty"`
	Accuracy          *Accuracy   `json:"accuracy,omitempty"`
	RatingBefore      int         `json:"rating_before,omitempty"`
	RatingAfter       int         `json:"rating_after,omitempty"`
	RatingDelta       int         `json:"rating_delta,omitempty"`
	Streak            int         `json:"streak,omitempty"`
	CompletionSeconds float64     `json:"completion_seconds,omitempty"`
}

type RatingState struct {
	Rating int `json:"rating"`
	Streak int `json:"streak"`
}

type Profile struct {
	PlayerName   string    `json:"player_name"`
	Rating       int       `json:"rating"`
	Streak       int       `json:"streak"`
	GamesPlayed  int       `json:"games_played"`
	BestAccuracy int       `json:"best_accuracy"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

type LeaderboardEntry struct {
	Rank                int       `json:"rank,omitempty"`
	PlayerName          string    `json:"player_name"`
	Difficulty          string    `json:"difficulty"`
	PieceCount          int       `json:"piece_count"`
	CorrectPieces       int       `json:"correct_pieces"`
	WrongPieces         *int      `json:"wrong_pieces,omitempty"`
	MemorizeTimeSeconds float64   `json:"memorize_time_seconds"`
	SolutionTimeSeconds float64   `json:"solution_time_seconds"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
}
