package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/salonledger/salonledger/internal/jobs"
)

// Warmer precomputes cached reports and returns how many were stored.
type Warmer interface {
	Warm(ctx context.Context) (int, error)
}

// ReportsWarmupJob fills the report cache after a version bump or restart.
type ReportsWarmupJob struct {
	Reports Warmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewReportsWarmupJob wires dependencies for the warm-up handler.
func NewReportsWarmupJob(reports Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: reports, Logger: logger, Metrics: metrics, Timeout: 2 * time.Minute}
}

// Handle processes warm-up tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	tracker := j.Metrics.Track(TaskReportsWarmup)
	defer func() { resultErr = tracker.End(resultErr) }()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	logger := loggerOr(j.Logger).With(slog.String("job", TaskReportsWarmup))
	start := time.Now()
	warmed, err := j.Reports.Warm(ctx)
	if err != nil {
		logger.Error("warm reports", slog.Int("warmed", warmed), slog.Any("error", err))
		return err
	}
	logger.Info("completed reports warmup", slog.Int("warmed", warmed), slog.Duration("duration", time.Since(start)))
	return nil
}
