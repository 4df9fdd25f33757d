package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/salonledger/salonledger/internal/jobs"
	"github.com/salonledger/salonledger/internal/workbook"
)

// BackupJob exports the store to a dated workbook.
type BackupJob struct {
	Source  workbook.Source
	Dir     string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewBackupJob wires dependencies for the backup handler.
func NewBackupJob(source workbook.Source, dir string, logger *slog.Logger, metrics *jobmetrics.Metrics) *BackupJob {
	return &BackupJob{Source: source, Dir: dir, Logger: logger, Metrics: metrics, clock: time.Now}
}

// WithClock replaces the clock that names backup files.
func (j *BackupJob) WithClock(now func() time.Time) *BackupJob {
	if now != nil {
		j.clock = now
	}
	return j
}

// Handle processes backup tasks.
func (j *BackupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Source == nil {
		return errors.New("backup: handler not configured")
	}
	var payload BackupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	dir := payload.Dir
	if dir == "" {
		dir = j.Dir
	}

	tracker := j.Metrics.Track(TaskBackupWorkbook)
	defer func() { resultErr = tracker.End(resultErr) }()

	logger := loggerOr(j.Logger).With(slog.String("job", TaskBackupWorkbook), slog.String("dir", dir))
	now := j.clock()
	path, counts, err := workbook.WriteBackup(ctx, j.Source, dir, now)
	if err != nil {
		logger.Error("backup failed", slog.Any("error", err))
		return err
	}
	j.Metrics.BackupWritten(now, counts)
	logger.Info("backup written", slog.String("path", path), slog.Int("rows", counts.Total()))
	return nil
}

func loggerOr(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
