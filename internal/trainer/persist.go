package trainer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"memchess/internal/domain"
	"memchess/internal/obslog"
	"memchess/internal/store"
)

const (
	profilesTable  = "training_profiles"
	persistTimeout = 5 * time.Second
)

// persistJob is one queued store write. Jobs run after the in-memory phase
// transition has committed; a failed job lands in the retry list instead of
// affecting game state.
type persistJob struct {
	kind string
	run  func(ctx context.Context) error
}

func (s *Service) enqueue(job persistJob) {
	select {
	case s.jobs <- job:
	default:
		// Queue full: park it with the failures so RetryPersistence can
		// pick it up instead of blocking a game transition.
		s.failMu.Lock()
		s.failed = append(s.failed, job)
		s.failMu.Unlock()
		obslog.L().Warn("trainer_persist_queue_full", zap.String("kind", job.kind))
	}
}

func (s *Service) persistLoop() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.runJob(job)
	}
}

func (s *Service) runJob(job persistJob) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := job.run(ctx); err != nil {
		s.failMu.Lock()
		s.failed = append(s.failed, job)
		s.failMu.Unlock()
		obslog.L().Warn("trainer_persist_error", zap.String("kind", job.kind), zap.Error(err))
		return
	}
	obslog.L().Debug("trainer_persist", zap.String("kind", job.kind))
}

// PendingFailures reports how many store writes are waiting for a retry.
func (s *Service) PendingFailures() int {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	return len(s.failed)
}

// RetryPersistence re-runs every failed store write. Jobs that fail again
// stay queued; the joined error is recoverable and independent of game
// state.
func (s *Service) RetryPersistence(ctx context.Context) error {
	s.failMu.Lock()
	jobs := s.failed
	s.failed = nil
	s.failMu.Unlock()

	var errs []error
	for _, job := range jobs {
		if err := job.run(ctx); err != nil {
			errs = append(errs, err)
			s.failMu.Lock()
			s.failed = append(s.failed, job)
			s.failMu.Unlock()
			continue
		}
		obslog.L().Info("trainer_persist_retry_ok", zap.String("kind", job.kind))
	}
	return errors.Join(errs...)
}

func (s *Service) enqueueProfileUpsert(p domain.TrainingProfile) {
	row := profileToRow(p)
	s.enqueue(persistJob{kind: "profile_upsert", run: func(ctx context.Context) error {
		return s.st.Upsert(ctx, profilesTable, row, "player_name")
	}})
}

func (s *Service) enqueueLeaderboardAdd(e domain.LeaderboardEntry) {
	s.enqueue(persistJob{kind: "leaderboard_add", run: func(ctx context.Context) error {
		return s.boards.Add(ctx, e)
	}})
}

func (s *Service) enqueueMetric(name string, delta int64) {
	s.enqueue(persistJob{kind: "metric_" + name, run: func(ctx context.Context) error {
		_, err := s.st.IncrementMetric(ctx, name, delta)
		return err
	}})
}

func (s *Service) loadProfileRow(ctx context.Context) (*domain.TrainingProfile, error) {
	rows, err := s.st.Select(ctx, profilesTable, store.Row{"player_name": s.profile.PlayerName}, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	p := profileFromRow(rows[0])
	return &p, nil
}

func profileToRow(p domain.TrainingProfile) store.Row {
	return store.Row{
		"player_name":    p.PlayerName,
		"rating":         p.Rating,
		"streak":         p.Streak,
		"games_played":   p.GamesPlayed,
		"best_accuracy":  p.BestAccuracy,
		"last_played_at": p.LastPlayedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":     p.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"created_at":     p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func profileFromRow(row store.Row) domain.TrainingProfile {
	var p domain.TrainingProfile
	p.PlayerName, _ = store.AsString(row["player_name"])
	p.Rating, _ = store.AsInt(row["rating"])
	p.Streak, _ = store.AsInt(row["streak"])
	p.GamesPlayed, _ = store.AsInt(row["games_played"])
	p.BestAccuracy, _ = store.AsInt(row["best_accuracy"])
	p.LastPlayedAt, _ = store.AsTime(row["last_played_at"])
	p.UpdatedAt, _ = store.AsTime(row["updated_at"])
	p.CreatedAt, _ = store.AsTime(row["created_at"])
	return p
}
