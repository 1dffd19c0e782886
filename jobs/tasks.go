package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGLIntegrity recomputes ledger invariants and reports drift.
	TaskGLIntegrity = "gl:integrity"
	// TaskPostingSweep re-posts completed payroll runs that never reached
	// the ledger.
	TaskPostingSweep = "posting:sweep"
)

// PostingSweepPayload bounds one sweep batch.
type PostingSweepPayload struct {
	Limit int `json:"limit"`
}

// NewGLIntegrityTask constructs the integrity check task.
func NewGLIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskGLIntegrity, nil)
}

// NewPostingSweepTask constructs a sweep task.
func NewPostingSweepTask(payload PostingSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPostingSweep, data), nil
}
