package compare

import (
	"math"

	"memchess/internal/board"
)

// DefaultExtraPiecePenalty is the flat accuracy deduction, in percentage
// points, per piece beyond the original count. Tunable product constant,
// kept configurable rather than hard-coded.
const DefaultExtraPiecePenalty = 10

// Result describes how a submitted reconstruction matched the original.
type Result struct {
	AccuracyPercent     int `json:"accuracy_percent"`
	CorrectPlacements   int `json:"correct_placements"`
	TotalOriginalPieces int `json:"total_original_pieces"`
	ExtraPieces         int `json:"extra_pieces"`
}

type Comparator struct {
	// ExtraPiecePenalty discourages flooding the board with guesses to
	// inflate the correct-placement count.
	ExtraPiecePenalty int
}

func New() *Comparator {
	return &Comparator{ExtraPiecePenalty: DefaultExtraPiecePenalty}
}

// Compare counts original pieces matched exactly (same square, type, and
// color) in the solution, then derives accuracy: round(correct/total*100)
// minus the extra-piece penalty, clamped to 0. An empty original is a defined
// degenerate case yielding accuracy 0, never a division error.
func (c *Comparator) Compare(original, solution *board.Position) Result {
	res := Result{}
	if original != nil {
		res.TotalOriginalPieces = original.Count()
	}

	solutionCount := 0
	if solution != nil {
		solutionCount = solution.Count()
		if original != nil {
			for sq, piece := range original.Pieces() {
				if solution.PieceAt(sq) == piece {
					res.CorrectPlacements++
				}
			}
		}
	}

	if extra := solutionCount - res.TotalOriginalPieces; extra > 0 {
		res.ExtraPieces = extra
	}

	if res.TotalOriginalPieces == 0 {
		return res
	}

	base := int(math.Round(float64(res.CorrectPlacements) / float64(res.TotalOriginalPieces) * 100))
	accuracy := base - c.ExtraPiecePenalty*res.ExtraPieces
	if accuracy < 0 {
		accuracy = 0
	}
	res.AccuracyPercent = accuracy
	return res
}
