package board

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var pieceTypeNames = map[nchess.PieceType]string{
	nchess.Pawn:   "pawn",
	nchess.Knight: "knight",
	nchess.Bishop: "bishop",
	nchess.Rook:   "rook",
	nchess.Queen:  "queen",
	nchess.King:   "king",
}

// ParseSquare converts algebraic notation ("e4") into a square.
func ParseSquare(s string) (nchess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, fmt.Errorf("invalid square %q", s)
	}
	file := nchess.File(s[0] - 'a')
	rank := nchess.Rank(s[1] - '1')
	return nchess.NewSquare(file, rank), nil
}

// ParsePiece converts textual color and type names into a piece.
func ParsePiece(colorName, typeName string) (nchess.Piece, error) {
	var color nchess.Color
	switch strings.ToLower(strings.TrimSpace(colorName)) {
	case "white", "w":
		color = nchess.White
	case "black", "b":
		color = nchess.Black
	default:
		return nchess.NoPiece, fmt.Errorf("invalid color %q", colorName)
	}
	want := strings.ToLower(strings.TrimSpace(typeName))
	for pt, name := range pieceTypeNames {
		if name == want {
			return nchess.NewPiece(pt, color), nil
		}
	}
	return nchess.NoPiece, fmt.Errorf("invalid piece type %q", typeName)
}

// PieceNames returns the textual color and type of a piece ("white", "knight").
func PieceNames(piece nchess.Piece) (string, string) {
	if piece == nchess.NoPiece {
		return "", ""
	}
	colorName := "white"
	if piece.Color() == nchess.Black {
		colorName = "black"
	}
	return colorName, pieceTypeNames[piece.Type()]
}
