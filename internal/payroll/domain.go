package payroll

import (
	"errors"
	"fmt"
	"time"
)

// RunStatus enumerates payroll run lifecycle values. Only COMPLETED runs may
// be posted to the general ledger; POSTED marks the run as booked.
type RunStatus string

const (
	RunStatusDraft     RunStatus = "DRAFT"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusPosted    RunStatus = "POSTED"
)

// Run models one payroll cycle for an organisation. The aggregate totals are
// the direct inputs to the journal lines when the run is posted.
type Run struct {
	ID              int64
	OrgID           int64
	RunNumber       string
	PayDate         time.Time
	TotalGrossPay   float64
	TotalDeductions float64
	TotalNetPay     float64
	Status          RunStatus
	// Optional per-run account overrides; zero means "use the
	// organisation default or auto-provision".
	ExpenseAccountID int64
	TaxAccountID     int64
	NetAccountID     int64
	CreatedBy        int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RunInput carries fields for creating a draft run.
type RunInput struct {
	OrgID            int64
	PayDate          time.Time
	TotalGrossPay    float64
	TotalDeductions  float64
	TotalNetPay      float64
	ExpenseAccountID int64
	TaxAccountID     int64
	NetAccountID     int64
	CreatedBy        int64
}

// RunCompletedEvent is handed to the posting pipeline once a run reaches
// COMPLETED.
type RunCompletedEvent struct {
	ID               int64
	OrgID            int64
	RunNumber        string
	PayDate          time.Time
	TotalGrossPay    float64
	TotalDeductions  float64
	TotalNetPay      float64
	ExpenseAccountID int64
	TaxAccountID     int64
	NetAccountID     int64
	ActorID          int64
}

var (
	// ErrRunNotFound indicates a missing payroll run.
	ErrRunNotFound = errors.New("payroll run not found")
	// ErrRunNotCompleted indicates the run is not in a postable state.
	ErrRunNotCompleted = errors.New("payroll: run is not completed")
	// ErrTotalsMismatch indicates gross != deductions + net.
	ErrTotalsMismatch = errors.New("payroll: gross pay must equal deductions plus net pay")
)

// ValidateTotals checks the payroll computation identity the posting relies
// on: gross = deductions + net, compared at two decimals.
func (r Run) ValidateTotals() error {
	if r.TotalGrossPay <= 0 {
		return errors.New("payroll: gross pay must be positive")
	}
	if r.TotalDeductions < 0 || r.TotalNetPay < 0 {
		return errors.New("payroll: negative totals")
	}
	if fmt.Sprintf("%.2f", r.TotalGrossPay) != fmt.Sprintf("%.2f", r.TotalDeductions+r.TotalNetPay) {
		return ErrTotalsMismatch
	}
	return nil
}

// CompletedEvent builds the posting event for the run.
func (r Run) CompletedEvent(actorID int64) RunCompletedEvent {
	return RunCompletedEvent{
		ID:               r.ID,
		OrgID:            r.OrgID,
		RunNumber:        r.RunNumber,
		PayDate:          r.PayDate,
		TotalGrossPay:    r.TotalGrossPay,
		TotalDeductions:  r.TotalDeductions,
		TotalNetPay:      r.TotalNetPay,
		ExpenseAccountID: r.ExpenseAccountID,
		TaxAccountID:     r.TaxAccountID,
		NetAccountID:     r.NetAccountID,
		ActorID:          actorID,
	}
}
