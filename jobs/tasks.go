package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBackupWorkbook writes a dated workbook backup of the store.
	TaskBackupWorkbook = "backup:workbook"
	// TaskReportsWarmup precomputes the cached reports of every branch.
	TaskReportsWarmup = "reports:warmup"
)

// BackupPayload overrides the configured backup directory when Dir is set.
type BackupPayload struct {
	Dir string `json:"dir,omitempty"`
}

// NewBackupTask constructs a backup task.
func NewBackupTask(payload BackupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBackupWorkbook, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewReportsWarmupTask constructs a report warm-up task.
func NewReportsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskReportsWarmup, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(1))
}

// NewTask builds the task registered under taskType with an empty payload.
func NewTask(taskType string) (*asynq.Task, error) {
	switch taskType {
	case TaskBackupWorkbook:
		return NewBackupTask(BackupPayload{})
	case TaskReportsWarmup:
		return NewReportsWarmupTask(), nil
	default:
		return nil, fmt.Errorf("jobs: unknown task %q", taskType)
	}
}
