package generator

import (
	"errors"
	"math/rand"
	"time"

	nchess "github.com/corentings/chess/v2"

	"memchess/internal/board"
)

// ErrGenerationFailed is returned when piece placement cannot satisfy the
// constraints within the attempt bound. Unreachable for well-formed piece
// counts on an empty board, but callers must not start a memorization phase
// on a malformed position, so the failure is explicit rather than looping.
var ErrGenerationFailed = errors.New("position generation failed")

const (
	MinPieces = 2
	MaxPieces = 32

	// Attempt bound for the rejection-sampling loop over non-king pieces.
	maxPlacementAttempts = 512
)

// Source yields uniform draws in [0, 1). Injected so tests can replay a
// deterministic sequence.
type Source interface {
	Float64() float64
}

// SystemSource returns a time-seeded source for production use.
func SystemSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Relative draw weights for non-king piece types.
var typeWeights = []struct {
	pieceType nchess.PieceType
	weight    float64
}{
	{nchess.Pawn, 8},
	{nchess.Knight, 2},
	{nchess.Bishop, 2},
	{nchess.Rook, 2},
	{nchess.Queen, 1},
}

type Generator struct {
	src Source
}

func New(src Source) *Generator {
	if src == nil {
		src = SystemSource()
	}
	return &Generator{src: src}
}

// Generate produces a random position with exactly pieceCount pieces
// (clamped to [2, 32]): one king per side, never adjacent, the remainder
// drawn from the weighted type distribution with colors balanced so neither
// side ends up more than one non-king piece ahead. Pawns are never placed on
// the back ranks.
func (g *Generator) Generate(pieceCount int) (*board.Position, error) {
	if pieceCount < MinPieces {
		pieceCount = MinPieces
	}
	if pieceCount > MaxPieces {
		pieceCount = MaxPieces
	}

	pos := board.NewPosition()

	whiteKing := g.drawSquare(func(nchess.Square) bool { return true })
	pos.Place(whiteKing, nchess.NewPiece(nchess.King, nchess.White))

	blackKing, ok := g.drawSquareOK(func(sq nchess.Square) bool {
		return !pos.Occupied(sq) && board.Chebyshev(sq, whiteKing) > 1
	})
	if !ok {
		return nil, ErrGenerationFailed
	}
	pos.Place(blackKing, nchess.NewPiece(nchess.King, nchess.Black))

	remaining := pieceCount - 2
	attempts := 0
	for remaining > 0 {
		if attempts++; attempts > maxPlacementAttempts {
			return nil, ErrGenerationFailed
		}
		sq, ok := g.drawSquareOK(func(sq nchess.Square) bool { return !pos.Occupied(sq) })
		if !ok {
			// No empty square left; bounded pieceCount never gets here.
			break
		}
		pieceType := g.drawType()
		if pieceType == nchess.Pawn && backRank(sq) {
			continue
		}
		pos.Place(sq, nchess.NewPiece(pieceType, g.drawColor(pos)))
		remaining--
	}

	if err := pos.ValidateTarget(); err != nil {
		return nil, errors.Join(ErrGenerationFailed, err)
	}
	return pos, nil
}

// drawSquare picks uniformly among the squares accepted by ok. The caller
// guarantees at least one square qualifies.
func (g *Generator) drawSquare(ok func(nchess.Square) bool) nchess.Square {
	sq, _ := g.drawSquareOK(ok)
	return sq
}

func (g *Generator) drawSquareOK(ok func(nchess.Square) bool) (nchess.Square, bool) {
	candidates := make([]nchess.Square, 0, 64)
	for i := 0; i < 64; i++ {
		sq := nchess.Square(i)
		if ok(sq) {
			candidates = append(candidates, sq)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[g.intN(len(candidates))], true
}

func (g *Generator) drawType() nchess.PieceType {
	total := 0.0
	for _, tw := range typeWeights {
		total += tw.weight
	}
	draw := g.src.Float64() * total
	for _, tw := range typeWeights {
		if draw < tw.weight {
			return tw.pieceType
		}
		draw -= tw.weight
	}
	return typeWeights[len(typeWeights)-1].pieceType
}

// drawColor keeps the non-king piece counts of the two sides within one of
// each other: a side that is ahead never receives the next piece.
func (g *Generator) drawColor(pos *board.Position) nchess.Color {
	white := pos.CountByColor(nchess.White)
	black := pos.CountByColor(nchess.Black)
	switch {
	case white > black:
		return nchess.Black
	case black > white:
		return nchess.White
	case g.src.Float64() < 0.5:
		return nchess.White
	default:
		return nchess.Black
	}
}

func (g *Generator) intN(n int) int {
	i := int(g.src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func backRank(sq nchess.Square) bool {
	return sq.Rank() == nchess.Rank1 || sq.Rank() == nchess.Rank8
}
