package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"memchess/internal/board"
	"memchess/internal/compare"
)

// Phase is the single source of truth for session lifecycle. There are no
// parallel boolean flags to drift out of sync with it.
type Phase string

const (
	PhaseConfiguration Phase = "CONFIGURATION"
	PhaseMemorization  Phase = "MEMORIZATION"
	PhaseSolution      Phase = "SOLUTION"
	PhaseResult        Phase = "RESULT"
)

var (
	// ErrInvalidTransition marks a phase operation invoked from a state
	// that does not permit it. The session is left untouched.
	ErrInvalidTransition = errors.New("invalid session transition")

	ErrInvalidConfig = errors.New("invalid session config")
)

func invalidTransition(op string, from Phase) error {
	return fmt.Errorf("%w: %s not allowed in %s", ErrInvalidTransition, op, from)
}

// Config is fixed once a session starts.
type Config struct {
	PieceCount      int     `json:"piece_count" validate:"min=2,max=32"`
	MemorizeSeconds float64 `json:"memorize_seconds" validate:"min=1,max=60"`
	Difficulty      string  `json:"difficulty" validate:"required"`
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Session is a read-only snapshot of the machine's state. Positions are
// deep-copied; mutating a snapshot never touches the live session.
type Session struct {
	ID                    string
	Phase                 Phase
	Config                Config
	Original              *board.Position
	Solution              *board.Position
	MemorizeStartedAt     time.Time
	SolutionStartedAt     time.Time
	ActualMemorizeSeconds float64
	CompletionSeconds     float64
	Accuracy              *compare.Result
	RatingBefore          int
	RatingAfter           int
	RatingDelta           int
	Streak                int
}

// Clock supplies the current time. Injected so elapsed memorize/solution
// times are testable without real delays.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
