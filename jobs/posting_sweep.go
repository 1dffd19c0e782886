package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// PayrollSweeper re-posts completed runs that never reached the ledger.
// Satisfied by the payroll service.
type PayrollSweeper interface {
	SweepUnposted(ctx context.Context, limit int) (int, error)
}

// PostingSweep recovers the mark-complete-then-post gap: a crash between the
// two steps leaves a COMPLETED run without a journal entry.
type PostingSweep struct {
	payroll PayrollSweeper
	logger  *slog.Logger
}

func NewPostingSweep(payroll PayrollSweeper, logger *slog.Logger) *PostingSweep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostingSweep{payroll: payroll, logger: logger}
}

// Handle processes TaskPostingSweep tasks.
func (s *PostingSweep) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PostingSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	recovered, err := s.payroll.SweepUnposted(ctx, payload.Limit)
	if err != nil {
		return err
	}
	if recovered > 0 {
		s.logger.Info("posting sweep recovered runs", slog.Int("count", recovered))
	}
	return nil
}
