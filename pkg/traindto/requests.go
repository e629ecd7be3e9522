package traindto

// StartRequest begins a session either from a named preset or from explicit
// values. Preset wins when both are present.
type StartRequest struct {
	Preset          string  `json:"preset,omitempty"`
	PieceCount      int     `json:"piece_count,omitempty"`
	MemorizeSeconds float64 `json:"memorize_seconds,omitempty"`
	Difficulty      string  `json:"difficulty,omitempty"`
}

type PlaceRequest struct {
	Square string `json:"square"`
	Color  string `json:"color"`
	Type   string `json:"type"`
}

type RemoveRequest struct {
	Square string `json:"square"`
}

// RankPreviewRequest asks what rank a hypothetical result would take.
type RankPreviewRequest struct {
	Difficulty          string  `json:"difficulty"`
	PieceCount          int     `json:"piece_count"`
	CorrectPieces       int     `json:"correct_pieces"`
	WrongPieces         *int    `json:"wrong_pieces,omitempty"`
	MemorizeTimeSeconds float64 `json:"memorize_time_seconds"`
	SolutionTimeSeconds float64 `json:"solution_time_seconds"`
}
