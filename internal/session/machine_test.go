package session

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	nchess "github.com/corentings/chess/v2"

	"memchess/internal/compare"
	"memchess/internal/generator"
	"memchess/internal/rating"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestMachine(t *testing.T) (*Machine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	gen := generator.New(rand.New(rand.NewSource(7)))
	return NewMachine(clock, gen, compare.New(), rating.NewModel()), clock
}

func testConfig() Config {
	return Config{PieceCount: 6, MemorizeSeconds: 10, Difficulty: "normal"}
}

// copySolution replays the original board onto the solution phase.
func copySolution(t *testing.T, m *Machine) {
	t.Helper()
	snap := m.Session()
	for _, sq := range snap.Original.Squares() {
		if err := m.PlacePiece(sq, snap.Original.PieceAt(sq)); err != nil {
			t.Fatalf("place %s: %v", sq, err)
		}
	}
}

func TestFullLifecycle(t *testing.T) {
	m, clock := newTestMachine(t)
	if m.Phase() != PhaseConfiguration {
		t.Fatalf("initial phase = %s", m.Phase())
	}

	if err := m.Start(testConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if m.Phase() != PhaseMemorization {
		t.Fatalf("phase after start = %s", m.Phase())
	}
	snap := m.Session()
	if snap.Original == nil || snap.Original.Count() != 6 {
		t.Fatalf("original board missing or wrong size: %+v", snap.Original)
	}

	clock.Advance(4 * time.Second)
	if err := m.EndMemorization(); err != nil {
		t.Fatalf("end memorization: %v", err)
	}
	if m.Phase() != PhaseSolution {
		t.Fatalf("phase = %s", m.Phase())
	}
	if got := m.Session().ActualMemorizeSeconds; got != 4 {
		t.Fatalf("actual memorize seconds = %v", got)
	}

	copySolution(t, m)
	clock.Advance(8 * time.Second)

	out, err := m.Submit(rating.State{Rating: rating.DefaultRating})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if m.Phase() != PhaseResult {
		t.Fatalf("phase after submit = %s", m.Phase())
	}
	if out.Delta <= 0 {
		t.Fatalf("perfect solve lost rating: %+v", out)
	}

	snap = m.Session()
	if snap.Accuracy == nil || snap.Accuracy.AccuracyPercent != 100 {
		t.Fatalf("accuracy = %+v", snap.Accuracy)
	}
	if snap.CompletionSeconds != 8 {
		t.Fatalf("completion seconds = %v", snap.CompletionSeconds)
	}
	if snap.RatingBefore != rating.DefaultRating || snap.RatingAfter != out.NewRating {
		t.Fatalf("rating snapshot = %+v", snap)
	}
}

func TestEndMemorizationIdempotent(t *testing.T) {
	m, clock := newTestMachine(t)
	if err := m.Start(testConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(3 * time.Second)
	if err := m.EndMemorization(); err != nil {
		t.Fatalf("first end: %v", err)
	}
	first := m.Session()

	// The auto-advance timer firing after a manual end must change nothing.
	clock.Advance(2 * time.Second)
	if err := m.EndMemorization(); err != nil {
		t.Fatalf("second end: %v", err)
	}
	second := m.Session()

	if !second.SolutionStartedAt.Equal(first.SolutionStartedAt) {
		t.Fatalf("solution start moved: %v -> %v", first.SolutionStartedAt, second.SolutionStartedAt)
	}
	if second.ActualMemorizeSeconds != first.ActualMemorizeSeconds {
		t.Fatalf("memorize time moved: %v -> %v", first.ActualMemorizeSeconds, second.ActualMemorizeSeconds)
	}
}

func TestInvalidTransitions(t *testing.T) {
	m, _ := newTestMachine(t)

	if err := m.EndMemorization(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("end from CONFIGURATION: %v", err)
	}
	if _, err := m.Submit(rating.State{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("submit from CONFIGURATION: %v", err)
	}
	if err := m.PlacePiece(nchess.Square(0), nchess.NewPiece(nchess.Pawn, nchess.White)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("place from CONFIGURATION: %v", err)
	}

	if err := m.Start(testConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(testConfig()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second start: %v", err)
	}
	if err := m.RemovePiece(nchess.Square(0)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("remove during MEMORIZATION: %v", err)
	}
	if _, err := m.Submit(rating.State{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("submit during MEMORIZATION: %v", err)
	}
	if m.Phase() != PhaseMemorization {
		t.Fatalf("failed calls moved the phase to %s", m.Phase())
	}
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	m, _ := newTestMachine(t)

	bad := []Config{
		{PieceCount: 1, MemorizeSeconds: 10, Difficulty: "normal"},
		{PieceCount: 33, MemorizeSeconds: 10, Difficulty: "normal"},
		{PieceCount: 8, MemorizeSeconds: 0, Difficulty: "normal"},
		{PieceCount: 8, MemorizeSeconds: 61, Difficulty: "normal"},
		{PieceCount: 8, MemorizeSeconds: 10},
	}
	for _, cfg := range bad {
		if err := m.Start(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Start(%+v) = %v", cfg, err)
		}
		if m.Phase() != PhaseConfiguration {
			t.Fatalf("rejected config moved phase to %s", m.Phase())
		}
	}
}

func TestPlaceReplacesAndRemoveClears(t *testing.T) {
	m, _ := newTestMachine(t)
	if err := m.Start(testConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.EndMemorization(); err != nil {
		t.Fatalf("end: %v", err)
	}

	target := nchess.Square(27) // d4
	if err := m.PlacePiece(target, nchess.NewPiece(nchess.Rook, nchess.White)); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := m.PlacePiece(target, nchess.NewPiece(nchess.Bishop, nchess.Black)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	snap := m.Session()
	if got := snap.Solution.PieceAt(target); got != nchess.NewPiece(nchess.Bishop, nchess.Black) {
		t.Fatalf("piece at d4 = %v", got)
	}

	if err := m.RemovePiece(target); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.Session().Solution.Count() != 0 {
		t.Fatalf("solution not empty after remove")
	}
}

func TestResetFromAnyPhase(t *testing.T) {
	m, _ := newTestMachine(t)
	if err := m.Start(testConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.EndMemorization(); err != nil {
		t.Fatalf("end: %v", err)
	}
	oldID := m.Session().ID

	m.Reset()
	snap := m.Session()
	if snap.Phase != PhaseConfiguration {
		t.Fatalf("phase after reset = %s", snap.Phase)
	}
	if snap.ID == oldID {
		t.Fatal("reset kept the old session id")
	}
	if snap.Original != nil || snap.Solution != nil || snap.Accuracy != nil {
		t.Fatalf("reset kept session data: %+v", snap)
	}

	// A fresh game starts cleanly after the reset.
	if err := m.Start(testConfig()); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m, _ := newTestMachine(t)
	if err := m.Start(testConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := m.Session()
	for _, s := range snap.Original.Squares() {
		snap.Original.Remove(s)
	}
	if m.Session().Original.Count() != 6 {
		t.Fatal("mutating a snapshot changed the live session")
	}
}
