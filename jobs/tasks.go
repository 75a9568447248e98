package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrine-pos/vitrine-pos/internal/reports"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionSweep removes expired session rows from postgres.
	TaskSessionSweep = "sessions:sweep"
	// TaskNumbersWarmup pre-runs the dashboard counter queries so the
	// first morning request hits warm caches and query plans.
	TaskNumbersWarmup = "reports:numbers:warmup"
)

// NewSessionSweepTask constructs the sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}

// NewNumbersWarmupTask constructs the warm-up task.
func NewNumbersWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskNumbersWarmup, nil)
}

// SessionSweeper deletes session rows past their expiry.
type SessionSweeper struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSessionSweeper builds a SessionSweeper.
func NewSessionSweeper(pool *pgxpool.Pool, logger *slog.Logger) *SessionSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweeper{pool: pool, logger: logger}
}

// Handle processes TaskSessionSweep tasks.
func (s *SessionSweeper) Handle(ctx context.Context, t *asynq.Task) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return err
	}
	s.logger.Info("swept expired sessions", slog.Int64("removed", tag.RowsAffected()))
	return nil
}

// NumbersWarmup runs the dashboard counters once and discards the result.
type NumbersWarmup struct {
	source reports.NumbersSource
	logger *slog.Logger
}

// NewNumbersWarmup builds a NumbersWarmup handler.
func NewNumbersWarmup(source reports.NumbersSource, logger *slog.Logger) *NumbersWarmup {
	if logger == nil {
		logger = slog.Default()
	}
	return &NumbersWarmup{source: source, logger: logger}
}

// Handle processes TaskNumbersWarmup tasks.
func (n *NumbersWarmup) Handle(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	if _, err := reports.CollectNumbers(ctx, n.source, time.Now()); err != nil {
		return err
	}
	n.logger.Info("warmed dashboard numbers", slog.Duration("took", time.Since(start)))
	return nil
}
