package trainer

import (
	"context"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"memchess/internal/compare"
	"memchess/internal/domain"
	"memchess/internal/generator"
	"memchess/internal/leaderboard"
	"memchess/internal/obslog"
	"memchess/internal/rating"
	"memchess/internal/session"
	"memchess/internal/store"
)

// Scheduler fires a callback once after a delay. Injected so the
// memorization auto-advance is testable without waiting.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func() bool)
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

func SystemScheduler() Scheduler { return systemScheduler{} }

type Options struct {
	Store             store.Store
	Clock             session.Clock
	Random            generator.Source
	Scheduler         Scheduler
	PlayerName        string
	ExtraPiecePenalty int
	LeaderboardSize   int
}

// Service is the single-session trainer facade the UI talks to. It
// serializes all transitions (UI calls and the auto-advance timer) behind
// one mutex, owns the persistent rating state across resets, and issues
// store writes as queued follow-up work after each transition commits in
// memory. A persistence failure never rolls back a computed result.
type Service struct {
	mu      sync.Mutex
	machine *session.Machine
	state   rating.State
	profile domain.TrainingProfile

	st     store.Store
	boards *leaderboard.Repository
	sched  Scheduler

	cancelTimer func() bool

	leaderboardSize int

	jobs      chan persistJob
	wg        sync.WaitGroup
	closeOnce sync.Once
	failMu    sync.Mutex
	failed    []persistJob
}

func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = session.SystemClock()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler()
	}
	if opts.PlayerName == "" {
		opts.PlayerName = "player"
	}
	cmp := compare.New()
	if opts.ExtraPiecePenalty > 0 {
		cmp.ExtraPiecePenalty = opts.ExtraPiecePenalty
	}
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = leaderboard.DisplayLimit
	}

	s := &Service{
		machine: session.NewMachine(opts.Clock, generator.New(opts.Random), cmp, rating.NewModel()),
		state:   rating.State{Rating: rating.DefaultRating},
		profile: domain.TrainingProfile{
			PlayerName: opts.PlayerName,
			Rating:     rating.DefaultRating,
		},
		st:              opts.Store,
		boards:          leaderboard.NewRepository(opts.Store),
		sched:           opts.Scheduler,
		leaderboardSize: opts.LeaderboardSize,
		jobs:            make(chan persistJob, 32),
	}
	s.wg.Add(1)
	go s.persistLoop()
	return s
}

// LoadProfile restores the persisted rating state, if any. Missing rows are
// not an error: a fresh player starts at the default rating.
func (s *Service) LoadProfile(ctx context.Context) error {
	p, err := s.loadProfileRow(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p != nil {
		s.profile = *p
		s.state = rating.State{Rating: p.Rating, Streak: p.Streak}
	}
	return nil
}

// StartGame begins a session: generates the memorization target, enters
// MEMORIZATION, and schedules the auto-advance timer. On generation failure
// the session stays in CONFIGURATION.
func (s *Service) StartGame(cfg session.Config) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.Start(cfg); err != nil {
		obslog.L().Warn("trainer_start_rejected", zap.String("difficulty", cfg.Difficulty), zap.Error(err))
		return session.Session{}, err
	}

	snap := s.machine.Session()
	s.stopTimerLocked()
	sessionID := snap.ID
	s.cancelTimer = s.sched.AfterFunc(time.Duration(cfg.MemorizeSeconds*float64(time.Second)), func() {
		s.autoAdvance(sessionID)
	})

	obslog.L().Info("trainer_start",
		zap.String("session_id", snap.ID),
		zap.String("difficulty", cfg.Difficulty),
		zap.Int("piece_count", cfg.PieceCount),
		zap.Float64("memorize_seconds", cfg.MemorizeSeconds),
	)
	return snap, nil
}

// autoAdvance is the timer-driven Memorization→Solution transition. It must
// land on the session it was armed for and is a no-op if the player already
// ended memorization manually.
func (s *Service) autoAdvance(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.Session().ID != sessionID || s.machine.Phase() != session.PhaseMemorization {
		return
	}
	if err := s.machine.EndMemorization(); err != nil {
		return
	}
	obslog.L().Info("trainer_end_memorization", zap.String("session_id", sessionID), zap.String("source", "timer"))
}

func (s *Service) EndMemorization() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.machine.EndMemorization(); err != nil {
		return err
	}
	s.stopTimerLocked()
	obslog.L().Info("trainer_end_memorization",
		zap.String("session_id", s.machine.Session().ID),
		zap.String("source", "manual"),
	)
	return nil
}

func (s *Service) PlacePiece(sq nchess.Square, piece nchess.Piece) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.PlacePiece(sq, piece)
}

func (s *Service) RemovePiece(sq nchess.Square) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.RemovePiece(sq)
}

// SubmitSolution scores the reconstruction, folds the outcome into the
// persistent rating state, and queues profile/leaderboard/metric writes.
// The returned snapshot is authoritative even if persistence later fails.
func (s *Service) SubmitSolution() (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.machine.Submit(s.state)
	if err != nil {
		return session.Session{}, err
	}
	s.state = rating.State{Rating: out.NewRating, Streak: out.NewStreak}

	snap := s.machine.Session()
	now := time.Now()
	s.profile.Rating = s.state.Rating
	s.profile.Streak = s.state.Streak
	s.profile.GamesPlayed++
	if snap.Accuracy != nil && snap.Accuracy.AccuracyPercent > s.profile.BestAccuracy {
		s.profile.BestAccuracy = snap.Accuracy.AccuracyPercent
	}
	s.profile.LastPlayedAt = now
	s.profile.UpdatedAt = now
	if s.profile.CreatedAt.IsZero() {
		s.profile.CreatedAt = now
	}

	entry := entryFromSession(s.profile.PlayerName, snap)

	obslog.L().Info("trainer_submit",
		zap.String("session_id", snap.ID),
		zap.Int("accuracy", snap.Accuracy.AccuracyPercent),
		zap.Int("correct", snap.Accuracy.CorrectPlacements),
		zap.Int("extra", snap.Accuracy.ExtraPieces),
		zap.Int("rating_before", snap.RatingBefore),
		zap.Int("rating_after", snap.RatingAfter),
		zap.Int("delta", snap.RatingDelta),
		zap.Int("streak", snap.Streak),
		zap.Float64("completion_seconds", snap.CompletionSeconds),
	)

	s.enqueueProfileUpsert(s.profile)
	s.enqueueLeaderboardAdd(entry)
	s.enqueueMetric("sessions_completed", 1)
	return snap, nil
}

// ResetGame discards the in-progress session from any phase and hands back a
// fresh CONFIGURATION session. Rating state survives the reset boundary.
func (s *Service) ResetGame() session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	phase := s.machine.Phase()
	if phase == session.PhaseMemorization || phase == session.PhaseSolution {
		s.enqueueMetric("sessions_abandoned", 1)
	}
	s.stopTimerLocked()
	s.machine.Reset()
	obslog.L().Info("trainer_reset", zap.String("from_phase", string(phase)))
	return s.machine.Session()
}

func (s *Service) CurrentPhase() session.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Phase()
}

func (s *Service) CurrentSession() session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Session()
}

func (s *Service) CurrentRating() rating.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) Profile() domain.TrainingProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Leaderboard returns the display slice for a difficulty.
func (s *Service) Leaderboard(ctx context.Context, difficulty string) ([]domain.LeaderboardEntry, error) {
	return s.boards.Top(ctx, difficulty, s.leaderboardSize)
}

// RankPreview answers "what would my rank be" for a hypothetical entry
// without touching session state.
func (s *Service) RankPreview(ctx context.Context, candidate domain.LeaderboardEntry) (int, error) {
	return s.boards.Rank(ctx, candidate)
}

func (s *Service) stopTimerLocked() {
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
}

// Close stops the timer and drains the persistence queue. Safe to call more
// than once. The store itself belongs to the caller.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.stopTimerLocked()
		s.mu.Unlock()
		close(s.jobs)
		s.wg.Wait()
	})
}

// entryFromSession derives the immutable leaderboard record for a finished
// session. Wrong pieces = misplaced originals plus extras beyond the
// original count.
func entryFromSession(playerName string, snap session.Session) domain.LeaderboardEntry {
	wrong := 0
	if snap.Accuracy != nil {
		wrong = snap.Accuracy.TotalOriginalPieces - snap.Accuracy.CorrectPlacements + snap.Accuracy.ExtraPieces
	}
	correct := 0
	if snap.Accuracy != nil {
		correct = snap.Accuracy.CorrectPlacements
	}
	memorize := snap.ActualMemorizeSeconds
	if memorize <= 0 {
		memorize = snap.Config.MemorizeSeconds
	}
	return domain.LeaderboardEntry{
		PlayerName:          playerName,
		Difficulty:          snap.Config.Difficulty,
		PieceCount:          snap.Config.PieceCount,
		CorrectPieces:       correct,
		WrongPieces:         &wrong,
		MemorizeTimeSeconds: memorize,
		SolutionTimeSeconds: snap.CompletionSeconds,
		CreatedAt:           time.Now(),
	}
}
