package session

import (
	"fmt"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"

	"memchess/internal/board"
	"memchess/internal/compare"
	"memchess/internal/generator"
	"memchess/internal/rating"
)

// Machine owns one session's phase transitions:
//
//	CONFIGURATION → MEMORIZATION → SOLUTION → RESULT → (reset) CONFIGURATION
//
// It is deliberately lock-free and single-writer; the caller serializes
// transitions. Rating state flows through Submit as input and output, never
// as hidden package state.
type Machine struct {
	clock Clock
	gen   *generator.Generator
	cmp   *compare.Comparator
	model *rating.Model

	id                    string
	phase                 Phase
	cfg                   Config
	original              *board.Position
	solution              *board.Position
	memorizeStartedAt     time.Time
	solutionStartedAt     time.Time
	actualMemorizeSeconds float64
	completionSeconds     float64
	accuracy              *compare.Result
	ratingBefore          int
	ratingAfter           int
	ratingDelta           int
	streak                int
}

func NewMachine(clock Clock, gen *generator.Generator, cmp *compare.Comparator, model *rating.Model) *Machine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Machine{
		clock: clock,
		gen:   gen,
		cmp:   cmp,
		model: model,
		id:    uuid.NewString(),
		phase: PhaseConfiguration,
	}
}

func (m *Machine) Phase() Phase { return m.phase }

// Start generates the memorization target and enters MEMORIZATION. On any
// failure the machine stays in CONFIGURATION untouched.
func (m *Machine) Start(cfg Config) error {
	if m.phase != PhaseConfiguration {
		return invalidTransition("start", m.phase)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	pos, err := m.gen.Generate(cfg.PieceCount)
	if err != nil {
		return fmt.Errorf("generate position: %w", err)
	}
	m.cfg = cfg
	m.original = pos
	m.solution = nil
	m.memorizeStartedAt = m.clock.Now()
	m.phase = PhaseMemorization
	return nil
}

// EndMemorization hides the board and opens the reconstruction phase. The
// timed auto-advance and a manual early end race benignly: once in SOLUTION
// a repeat call is a no-op that keeps solutionStartedAt intact.
func (m *Machine) EndMemorization() error {
	if m.phase == PhaseSolution {
		return nil
	}
	if m.phase != PhaseMemorization {
		return invalidTransition("end memorization", m.phase)
	}
	now := m.clock.Now()
	m.actualMemorizeSeconds = now.Sub(m.memorizeStartedAt).Seconds()
	m.solution = board.NewPosition()
	m.solutionStartedAt = now
	m.phase = PhaseSolution
	return nil
}

// PlacePiece upserts a piece on the solution board; placing on an occupied
// square replaces the occupant.
func (m *Machine) PlacePiece(sq nchess.Square, piece nchess.Piece) error {
	if m.phase != PhaseSolution {
		return invalidTransition("place piece", m.phase)
	}
	m.solution.Place(sq, piece)
	return nil
}

func (m *Machine) RemovePiece(sq nchess.Square) error {
	if m.phase != PhaseSolution {
		return invalidTransition("remove piece", m.phase)
	}
	m.solution.Remove(sq)
	return nil
}

// Submit scores the reconstruction, applies the rating model to cur, and
// enters RESULT. After this neither board mutates again; the caller persists
// the returned rating state.
func (m *Machine) Submit(cur rating.State) (rating.Outcome, error) {
	if m.phase != PhaseSolution {
		return rating.Outcome{}, invalidTransition("submit", m.phase)
	}
	m.completionSeconds = m.clock.Now().Sub(m.solutionStartedAt).Seconds()

	res := m.cmp.Compare(m.original, m.solution)
	m.accuracy = &res

	// Prefer the measured memorize time: the player may have ended early.
	memorize := m.actualMemorizeSeconds
	if memorize <= 0 {
		memorize = m.cfg.MemorizeSeconds
	}
	out := m.model.Apply(cur, res.AccuracyPercent, m.cfg.PieceCount, m.completionSeconds, memorize)

	m.ratingBefore = cur.Rating
	m.ratingAfter = out.NewRating
	m.ratingDelta = out.Delta
	m.streak = out.NewStreak
	m.phase = PhaseResult
	return out, nil
}

// Reset abandons the session from any phase. The old Session value is
// discarded wholesale; persistent rating state lives with the caller.
func (m *Machine) Reset() {
	m.id = uuid.NewString()
	m.phase = PhaseConfiguration
	m.cfg = Config{}
	m.original = nil
	m.solution = nil
	m.memorizeStartedAt = time.Time{}
	m.solutionStartedAt = time.Time{}
	m.actualMemorizeSeconds = 0
	m.completionSeconds = 0
	m.accuracy = nil
	m.ratingBefore = 0
	m.ratingAfter = 0
	m.ratingDelta = 0
	m.streak = 0
}

// Session snapshots the current state with deep-copied boards.
func (m *Machine) Session() Session {
	s := Session{
		ID:                    m.id,
		Phase:                 m.phase,
		Config:                m.cfg,
		MemorizeStartedAt:     m.memorizeStartedAt,
		SolutionStartedAt:     m.solutionStartedAt,
		ActualMemorizeSeconds: m.actualMemorizeSeconds,
		CompletionSeconds:     m.completionSeconds,
		RatingBefore:          m.ratingBefore,
		RatingAfter:           m.ratingAfter,
		RatingDelta:           m.ratingDelta,
		Streak:                m.streak,
	}
	if m.original != nil {
		s.Original = m.original.Clone()
	}
	if m.solution != nil {
		s.Solution = m.solution.Clone()
	}
	if m.accuracy != nil {
		res := *m.accuracy
		s.Accuracy = &res
	}
	return s
}
