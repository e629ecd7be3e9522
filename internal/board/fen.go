package board

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// FEN renders the position as the board field of a FEN string
// (e.g. "8/8/4k3/8/8/2K5/8/8"). Piece identity round-trips losslessly;
// side-to-move and castling fields do not apply to a static snapshot.
func (p *Position) FEN() string {
	return nchess.NewBoard(p.Pieces()).String()
}

// FromFEN rebuilds a position from a FEN board field produced by FEN.
// A full FEN line is tolerated: everything after the first space is ignored.
func FromFEN(s string) (*Position, error) {
	field := strings.TrimSpace(s)
	if i := strings.IndexByte(field, ' '); i >= 0 {
		field = field[:i]
	}
	if field == "" {
		return nil, fmt.Errorf("empty fen board field")
	}
	var b nchess.Board
	if err := b.UnmarshalText([]byte(field)); err != nil {
		return nil, fmt.Errorf("parse fen board %q: %w", field, err)
	}
	pos := NewPosition()
	for sq, piece := range b.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		pos.Place(sq, piece)
	}
	return pos, nil
}
