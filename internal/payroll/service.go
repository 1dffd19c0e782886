package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian/internal/shared"
)

// PostingHandler receives run lifecycle events and books them to the general
// ledger. Implemented by the posting hooks.
type PostingHandler interface {
	HandlePayrollRunCompleted(ctx context.Context, evt RunCompletedEvent) (entryNumber string, err error)
}

// AuditPort records payroll events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates payroll runs and their handoff to the ledger.
type Service struct {
	repo    RepositoryPort
	posting PostingHandler
	audit   AuditPort
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo RepositoryPort, posting PostingHandler, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, posting: posting, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateRun records a draft payroll run after checking the totals identity.
func (s *Service) CreateRun(ctx context.Context, input RunInput) (*Run, error) {
	if input.OrgID == 0 {
		return nil, shared.ErrOrgRequired
	}
	if input.PayDate.IsZero() {
		input.PayDate = s.now()
	}
	probe := Run{
		TotalGrossPay:   input.TotalGrossPay,
		TotalDeductions: input.TotalDeductions,
		TotalNetPay:     input.TotalNetPay,
	}
	if err := probe.ValidateTotals(); err != nil {
		return nil, err
	}
	run, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create payroll run: %w", err)
	}
	return run, nil
}

// GetRun fetches a single run scoped to the organisation.
func (s *Service) GetRun(ctx context.Context, orgID, id int64) (*Run, error) {
	return s.repo.Get(ctx, orgID, id)
}

// ListRuns lists an organisation's runs, newest first.
func (s *Service) ListRuns(ctx context.Context, orgID int64) ([]Run, error) {
	return s.repo.List(ctx, orgID)
}

// CompleteRun transitions DRAFT -> COMPLETED. Posting happens separately; the
// recovery sweep picks up any run that completes but never posts.
func (s *Service) CompleteRun(ctx context.Context, orgID, id, actorID int64) (*Run, error) {
	run, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if run.Status != RunStatusDraft {
		return nil, ErrRunNotCompleted
	}
	if err := run.ValidateTotals(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, orgID, id, RunStatusDraft, RunStatusCompleted); err != nil {
		return nil, err
	}
	run.Status = RunStatusCompleted
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			OrgID:    orgID,
			ActorID:  actorID,
			Action:   "payroll.complete",
			Entity:   "payroll_run",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return run, nil
}

// PostRun books a completed run to the ledger. Re-posting an already posted
// run succeeds without creating a second entry.
func (s *Service) PostRun(ctx context.Context, orgID, id, actorID int64) (string, error) {
	run, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return "", err
	}
	switch run.Status {
	case RunStatusCompleted, RunStatusPosted:
		// A posted run flows through again; the source link dedupe keeps
		// the hook from writing a second entry.
	default:
		return "", ErrRunNotCompleted
	}
	entryNumber, err := s.posting.HandlePayrollRunCompleted(ctx, run.CompletedEvent(actorID))
	if err != nil {
		return "", err
	}
	if run.Status == RunStatusCompleted {
		if err := s.repo.UpdateStatus(ctx, orgID, id, RunStatusCompleted, RunStatusPosted); err != nil && !errors.Is(err, ErrRunNotCompleted) {
			// The journal exists; the sweep recovers a stale flag.
			s.logger.Warn("payroll run posted but status update failed",
				slog.Int64("run_id", id), slog.Any("error", err))
		}
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			OrgID:    orgID,
			ActorID:  actorID,
			Action:   "payroll.post",
			Entity:   "payroll_run",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"entry_number": entryNumber},
		})
	}
	return entryNumber, nil
}

// SweepUnposted re-attempts posting for completed runs that never reached the
// ledger. Called from the posting:sweep job.
func (s *Service) SweepUnposted(ctx context.Context, limit int) (int, error) {
	runs, err := s.repo.ListCompletedUnposted(ctx, limit)
	if err != nil {
		return 0, err
	}
	var recovered int
	for _, run := range runs {
		if _, err := s.PostRun(ctx, run.OrgID, run.ID, 0); err != nil {
			s.logger.Warn("payroll sweep: posting failed",
				slog.Int64("run_id", run.ID), slog.Any("error", err))
			continue
		}
		recovered++
	}
	return recovered, nil
}
