package rating

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Rating 2000 makes the damper exactly 1.0 so point arithmetic is visible.
const neutralRating = 2000

func TestAccuracyTiers(t *testing.T) {
	m := NewModel()
	cases := []struct {
		accuracy  int
		wantDelta int
	}{
		{100, 50},
		{99, 30},
		{90, 30},
		{89, 20},
		{80, 20},
		{79, 10},
		{70, 10},
		{69, 5},
		{50, 5},
		{49, 0},
		{30, 0},
		{29, -10},
		{0, -10},
	}
	for _, c := range cases {
		// completion slower than memorization: no time bonus, no piece bonus.
		out := m.Apply(State{Rating: neutralRating}, c.accuracy, 0, 20, 10)
		require.Equal(t, c.wantDelta, out.Delta, "accuracy %d", c.accuracy)
	}
}

func TestPieceCountBonus(t *testing.T) {
	m := NewModel()
	base := m.Apply(State{Rating: neutralRating}, 50, 0, 20, 10)
	withPieces := m.Apply(State{Rating: neutralRating}, 50, 9, 20, 10)
	require.Equal(t, base.Delta+4, withPieces.Delta, "floor(9/2) piece bonus")
}

func TestTimeBonus(t *testing.T) {
	m := NewModel()

	// Completed in half the memorize time: floor(10/5*10) = 20 extra points.
	fast := m.Apply(State{Rating: neutralRating}, 50, 0, 5, 10)
	require.Equal(t, 5+20, fast.Delta)

	// Completion equal to memorize time still earns the base multiple.
	equal := m.Apply(State{Rating: neutralRating}, 50, 0, 10, 10)
	require.Equal(t, 5+10, equal.Delta)

	// Slower than the memorize window earns nothing.
	slow := m.Apply(State{Rating: neutralRating}, 50, 0, 10.5, 10)
	require.Equal(t, 5, slow.Delta)
}

func TestDamperScalesDelta(t *testing.T) {
	m := NewModel()

	// Low-rated players move faster, capped at 1.5x.
	low := m.Apply(State{Rating: 1000}, 100, 0, 20, 10)
	require.Equal(t, 75, low.Delta)

	// High-rated players move slower, floored at 0.5x.
	high := m.Apply(State{Rating: 8000}, 100, 0, 20, 10)
	require.Equal(t, 25, high.Delta)

	// Rating zero takes the fast cap rather than dividing by zero.
	zero := m.Apply(State{Rating: 0}, 100, 0, 20, 10)
	require.Equal(t, 75, zero.Delta)
}

func TestRatingNeverNegative(t *testing.T) {
	m := NewModel()
	out := m.Apply(State{Rating: 5}, 0, 0, 20, 10)
	require.Negative(t, out.Delta)
	require.Equal(t, 0, out.NewRating)
}

func TestStreak(t *testing.T) {
	m := NewModel()

	extended := m.Apply(State{Rating: neutralRating, Streak: 3}, 70, 0, 20, 10)
	require.Equal(t, 4, extended.NewStreak)

	broken := m.Apply(State{Rating: neutralRating, Streak: 3}, 69, 0, 20, 10)
	require.Equal(t, 0, broken.NewStreak)
}

func TestApplyIsDeterministic(t *testing.T) {
	m := NewModel()
	a := m.Apply(State{Rating: 1432, Streak: 2}, 85, 12, 33.5, 12)
	b := m.Apply(State{Rating: 1432, Streak: 2}, 85, 12, 33.5, 12)
	require.Equal(t, a, b)
}
