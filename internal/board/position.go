package board

import (
	"errors"
	"sort"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrMissingKing   = errors.New("position is missing a king")
	ErrDuplicateKing = errors.New("position has more than one king of a color")
	ErrAdjacentKings = errors.New("kings are on adjacent squares")
)

// Position is a free-form set of placed pieces keyed by square. It carries no
// move legality: pieces are placed and removed directly, which is all the
// memory trainer needs. A memorization target must additionally satisfy
// ValidateTarget; an in-progress reconstruction may be incomplete or over-full.
type Position struct {
	pieces map[nchess.Square]nchess.Piece
}

func NewPosition() *Position {
	return &Position{pieces: make(map[nchess.Square]nchess.Piece)}
}

// Place puts a piece on the square, replacing any occupant.
func (p *Position) Place(sq nchess.Square, piece nchess.Piece) {
	if piece == nchess.NoPiece {
		return
	}
	p.pieces[sq] = piece
}

// Remove clears the square and reports whether a piece was there.
func (p *Position) Remove(sq nchess.Square) bool {
	if _, ok := p.pieces[sq]; !ok {
		return false
	}
	delete(p.pieces, sq)
	return true
}

func (p *Position) PieceAt(sq nchess.Square) nchess.Piece {
	if piece, ok := p.pieces[sq]; ok {
		return piece
	}
	return nchess.NoPiece
}

func (p *Position) Occupied(sq nchess.Square) bool {
	_, ok := p.pieces[sq]
	return ok
}

func (p *Position) Count() int {
	return len(p.pieces)
}

// Pieces returns a copy of the square map.
func (p *Position) Pieces() map[nchess.Square]nchess.Piece {
	out := make(map[nchess.Square]nchess.Piece, len(p.pieces))
	for sq, piece := range p.pieces {
		out[sq] = piece
	}
	return out
}

// Squares returns occupied squares in ascending square order, so callers that
// need deterministic iteration (encoding, logging) get a stable view.
func (p *Position) Squares() []nchess.Square {
	out := make([]nchess.Square, 0, len(p.pieces))
	for sq := range p.pieces {
		out = append(out, sq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *Position) Clone() *Position {
	return &Position{pieces: p.Pieces()}
}

// CountByColor counts non-king pieces per color. Used by the generator to keep
// the two sides balanced.
func (p *Position) CountByColor(color nchess.Color) int {
	n := 0
	for _, piece := range p.pieces {
		if piece.Color() == color && piece.Type() != nchess.King {
			n++
		}
	}
	return n
}

// KingSquare returns the square of the given side's king, if present.
func (p *Position) KingSquare(color nchess.Color) (nchess.Square, bool) {
	for sq, piece := range p.pieces {
		if piece.Type() == nchess.King && piece.Color() == color {
			return sq, true
		}
	}
	return 0, false
}

// ValidateTarget checks the partial-legality invariant required of a
// memorization target: exactly one king per side and the kings not adjacent.
func (p *Position) ValidateTarget() error {
	var whiteKings, blackKings int
	var whiteSq, blackSq nchess.Square
	for sq, piece := range p.pieces {
		if piece.Type() != nchess.King {
			continue
		}
		switch piece.Color() {
		case nchess.White:
			whiteKings++
			whiteSq = sq
		case nchess.Black:
			blackKings++
			blackSq = sq
		}
	}
	if whiteKings > 1 || blackKings > 1 {
		return ErrDuplicateKing
	}
	if whiteKings == 0 || blackKings == 0 {
		return ErrMissingKing
	}
	if Chebyshev(whiteSq, blackSq) <= 1 {
		return ErrAdjacentKings
	}
	return nil
}

// Chebyshev is the king-move distance between two squares.
func Chebyshev(a, b nchess.Square) int {
	df := int(a.File()) - int(b.File())
	dr := int(a.Rank()) - int(b.Rank())
	if df < 0 {
		df = -df
	}
	if dr < 0 {
		dr = -dr
	}
	if df > dr {
		return df
	}
	return dr
}
