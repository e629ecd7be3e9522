package rating

import "math"

const (
	// DefaultRating seeds a player who has never completed a session.
	DefaultRating = 1200

	// Reference rating for the damping factor: players below it gain and
	// lose faster, players above it more slowly.
	damperPivot = 2000
	damperMin   = 0.5
	damperMax   = 1.5

	// Accuracy at or above this counts as a successful session for streaks.
	streakThreshold = 70

	// Floor on completion time to keep the time bonus division defined.
	minCompletionSeconds = 0.001
)

// State is the persistent per-player skill state. The model never mutates a
// hidden singleton: callers pass the current state in and persist the
// returned one.
type State struct {
	Rating int `json:"rating"`
	Streak int `json:"streak"`
}

// Outcome is the result of applying one completed session to a State.
type Outcome struct {
	Delta     int
	NewRating int
	NewStreak int
}

// Model converts a completed session into a rating movement. Purely
// deterministic: same inputs, same delta. This is a self-correcting damped
// point model, not an ELO exchange against an opponent pool.
type Model struct{}

func NewModel() *Model {
	return &Model{}
}

// Apply computes the rating delta for a session with the given accuracy
// percent, piece count, and timings, then folds it into cur.
// memorizeSeconds should be the actual memorization time when the player
// ended the phase early, falling back to the configured duration.
func (m *Model) Apply(cur State, accuracy, pieceCount int, completionSeconds, memorizeSeconds float64) Outcome {
	points := accuracyTierBonus(accuracy)
	points += pieceCount / 2
	points += timeBonus(completionSeconds, memorizeSeconds)

	delta := int(math.Round(float64(points) * damper(cur.Rating)))

	next := cur.Rating + delta
	if next < 0 {
		next = 0
	}

	streak := 0
	if accuracy >= streakThreshold {
		streak = cur.Streak + 1
	}

	return Outcome{Delta: delta, NewRating: next, NewStreak: streak}
}

func accuracyTierBonus(accuracy int) int {
	switch {
	case accuracy >= 100:
		return 50
	case accuracy >= 90:
		return 30
	case accuracy >= 80:
		return 20
	case accuracy >= 70:
		return 10
	case accuracy >= 50:
		return 5
	case accuracy < 30:
		return -10
	default:
		return 0
	}
}

func timeBonus(completionSeconds, memorizeSeconds float64) int {
	if completionSeconds <= 0 {
		completionSeconds = minCompletionSeconds
	}
	if memorizeSeconds <= 0 || completionSeconds > memorizeSeconds {
		return 0
	}
	return int(math.Floor(memorizeSeconds / completionSeconds * 10))
}

// damper scales point movement by clamp(2000/rating, 0.5, 1.5) so low-rated
// players converge quickly and high-rated players drift slowly.
func damper(current int) float64 {
	if current <= 0 {
		return damperMax
	}
	f := float64(damperPivot) / float64(current)
	if f < damperMin {
		return damperMin
	}
	if f > damperMax {
		return damperMax
	}
	return f
}
