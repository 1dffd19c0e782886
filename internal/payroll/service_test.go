package payroll

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryRunRepo struct {
	nextID int64
	runs   map[int64]*Run
}

func newMemoryRunRepo() *memoryRunRepo {
	return &memoryRunRepo{runs: make(map[int64]*Run)}
}

func (r *memoryRunRepo) Create(ctx context.Context, input RunInput) (*Run, error) {
	r.nextID++
	run := &Run{
		ID:               r.nextID,
		OrgID:            input.OrgID,
		RunNumber:        "RUN-000001",
		PayDate:          input.PayDate,
		TotalGrossPay:    input.TotalGrossPay,
		TotalDeductions:  input.TotalDeductions,
		TotalNetPay:      input.TotalNetPay,
		Status:           RunStatusDraft,
		ExpenseAccountID: input.ExpenseAccountID,
		TaxAccountID:     input.TaxAccountID,
		NetAccountID:     input.NetAccountID,
		CreatedBy:        input.CreatedBy,
	}
	r.runs[run.ID] = run
	return run, nil
}

func (r *memoryRunRepo) Get(ctx context.Context, orgID, id int64) (*Run, error) {
	run, ok := r.runs[id]
	if !ok || run.OrgID != orgID {
		return nil, ErrRunNotFound
	}
	copied := *run
	return &copied, nil
}

func (r *memoryRunRepo) List(ctx context.Context, orgID int64) ([]Run, error) {
	var out []Run
	for _, run := range r.runs {
		if run.OrgID == orgID {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (r *memoryRunRepo) UpdateStatus(ctx context.Context, orgID, id int64, from, to RunStatus) error {
	run, ok := r.runs[id]
	if !ok || run.OrgID != orgID || run.Status != from {
		return ErrRunNotCompleted
	}
	run.Status = to
	return nil
}

func (r *memoryRunRepo) ListCompletedUnposted(ctx context.Context, limit int) ([]Run, error) {
	var out []Run
	for _, run := range r.runs {
		if run.Status == RunStatusCompleted {
			out = append(out, *run)
		}
	}
	return out, nil
}

type stubPosting struct {
	calls  int
	err    error
	events []RunCompletedEvent
}

func (p *stubPosting) HandlePayrollRunCompleted(ctx context.Context, evt RunCompletedEvent) (string, error) {
	p.calls++
	p.events = append(p.events, evt)
	if p.err != nil {
		return "", p.err
	}
	return "JE-PAYROLL-000001", nil
}

func draftRun(t *testing.T, svc *Service, repo *memoryRunRepo) *Run {
	t.Helper()
	run, err := svc.CreateRun(context.Background(), RunInput{
		OrgID:           1,
		PayDate:         time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalGrossPay:   10000,
		TotalDeductions: 1500,
		TotalNetPay:     8500,
		CreatedBy:       7,
	})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	return run
}

func TestCreateRunRejectsTotalsMismatch(t *testing.T) {
	svc := NewService(newMemoryRunRepo(), &stubPosting{}, nil, nil)
	_, err := svc.CreateRun(context.Background(), RunInput{
		OrgID:           1,
		TotalGrossPay:   10000,
		TotalDeductions: 1500,
		TotalNetPay:     9000,
	})
	if !errors.Is(err, ErrTotalsMismatch) {
		t.Fatalf("expected ErrTotalsMismatch, got %v", err)
	}
}

func TestCompleteThenPostRun(t *testing.T) {
	repo := newMemoryRunRepo()
	posting := &stubPosting{}
	svc := NewService(repo, posting, nil, nil)
	run := draftRun(t, svc, repo)

	completed, err := svc.CompleteRun(context.Background(), 1, run.ID, 7)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != RunStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", completed.Status)
	}

	entryNumber, err := svc.PostRun(context.Background(), 1, run.ID, 7)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if entryNumber != "JE-PAYROLL-000001" {
		t.Fatalf("unexpected entry number %q", entryNumber)
	}
	if repo.runs[run.ID].Status != RunStatusPosted {
		t.Fatalf("expected POSTED, got %s", repo.runs[run.ID].Status)
	}
	evt := posting.events[0]
	if evt.TotalGrossPay != 10000 || evt.TotalDeductions != 1500 || evt.TotalNetPay != 8500 {
		t.Fatalf("unexpected event totals: %+v", evt)
	}
}

func TestPostRunUnknownIDReturnsNotFound(t *testing.T) {
	posting := &stubPosting{}
	svc := NewService(newMemoryRunRepo(), posting, nil, nil)

	_, err := svc.PostRun(context.Background(), 1, 999, 7)
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err.Error() != "payroll run not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if posting.calls != 0 {
		t.Fatal("no entry must be booked for an unknown run")
	}
}

func TestPostRunRejectsDraft(t *testing.T) {
	repo := newMemoryRunRepo()
	svc := NewService(repo, &stubPosting{}, nil, nil)
	run := draftRun(t, svc, repo)

	if _, err := svc.PostRun(context.Background(), 1, run.ID, 7); !errors.Is(err, ErrRunNotCompleted) {
		t.Fatalf("expected ErrRunNotCompleted, got %v", err)
	}
}

func TestPostRunLeavesCompletedOnHookFailure(t *testing.T) {
	repo := newMemoryRunRepo()
	posting := &stubPosting{err: errors.New("no open period")}
	svc := NewService(repo, posting, nil, nil)
	run := draftRun(t, svc, repo)
	if _, err := svc.CompleteRun(context.Background(), 1, run.ID, 7); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := svc.PostRun(context.Background(), 1, run.ID, 7); err == nil {
		t.Fatal("expected posting failure to propagate")
	}
	if repo.runs[run.ID].Status != RunStatusCompleted {
		t.Fatalf("run must stay COMPLETED for the sweep, got %s", repo.runs[run.ID].Status)
	}
}

func TestSweepUnpostedRecoversRuns(t *testing.T) {
	repo := newMemoryRunRepo()
	posting := &stubPosting{}
	svc := NewService(repo, posting, nil, nil)
	run := draftRun(t, svc, repo)
	if _, err := svc.CompleteRun(context.Background(), 1, run.ID, 7); err != nil {
		t.Fatalf("complete: %v", err)
	}

	recovered, err := svc.SweepUnposted(context.Background(), 10)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected 1 recovered run, got %d", recovered)
	}
	if repo.runs[run.ID].Status != RunStatusPosted {
		t.Fatalf("expected POSTED after sweep, got %s", repo.runs[run.ID].Status)
	}
}
