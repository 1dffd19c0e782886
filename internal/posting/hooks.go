package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian/internal/accounting/accounts"
	"github.com/meridian-erp/meridian/internal/accounting/journals"
	"github.com/meridian-erp/meridian/internal/accounting/periods"
	acctshared "github.com/meridian-erp/meridian/internal/accounting/shared"
	"github.com/meridian-erp/meridian/internal/ar"
	"github.com/meridian-erp/meridian/internal/payroll"
)

// Ledger exposes the journal operations the hooks need.
type Ledger interface {
	PostJournal(ctx context.Context, input journals.PostingInput) (journals.JournalEntry, error)
	FindEntryNumberBySource(ctx context.Context, orgID int64, module string, ref uuid.UUID) (string, error)
}

// PeriodRepository provides period lookups.
type PeriodRepository interface {
	FindOpenPeriodByDate(ctx context.Context, orgID int64, date time.Time) (periods.Period, error)
}

// AccountResolver maps semantic roles to concrete accounts, provisioning
// them when the organisation has none.
type AccountResolver interface {
	Resolve(ctx context.Context, orgID int64, role accounts.Role, override int64) (int64, error)
}

// PostingMetrics counts successful postings by source module.
type PostingMetrics interface {
	IncJournalPosting(sourceModule string)
}

// Hooks turns finalized subsidiary documents into balanced journal entries.
// Every handler is idempotent: a source document already linked to an entry
// resolves to the existing entry instead of booking a second one.
type Hooks struct {
	ledger     Ledger
	periodRepo PeriodRepository
	resolver   AccountResolver
	metrics    PostingMetrics
}

// NewHooks constructs posting hooks.
func NewHooks(ledger Ledger, periodRepo PeriodRepository, resolver AccountResolver) *Hooks {
	return &Hooks{ledger: ledger, periodRepo: periodRepo, resolver: resolver}
}

// WithMetrics attaches a posting counter.
func (h *Hooks) WithMetrics(m PostingMetrics) *Hooks {
	h.metrics = m
	return h
}

var (
	_ payroll.PostingHandler = (*Hooks)(nil)
	_ ar.PostingHandler      = (*Hooks)(nil)
)

func (h *Hooks) post(ctx context.Context, input journals.PostingInput) (string, error) {
	if input.SourceID == uuid.Nil {
		return "", errors.New("posting: source id required")
	}
	entry, err := h.ledger.PostJournal(ctx, input)
	if err != nil {
		if errors.Is(err, acctshared.ErrSourceAlreadyLinked) {
			return h.ledger.FindEntryNumberBySource(ctx, input.OrgID, input.SourceModule, input.SourceID)
		}
		return "", err
	}
	if h.metrics != nil {
		h.metrics.IncJournalPosting(input.SourceModule)
	}
	return entry.EntryNumber, nil
}

// HandlePayrollRunCompleted books a completed payroll run:
// debit salary expense for gross pay, credit tax payable for deductions,
// credit salaries payable for net pay.
func (h *Hooks) HandlePayrollRunCompleted(ctx context.Context, evt payroll.RunCompletedEvent) (string, error) {
	if evt.PayDate.IsZero() {
		return "", errors.New("posting: payroll pay date required")
	}
	gross := round2(evt.TotalGrossPay)
	deductions := round2(evt.TotalDeductions)
	net := round2(evt.TotalNetPay)
	if gross <= 0 {
		return "", errors.New("posting: payroll gross pay must be positive")
	}
	period, err := h.periodRepo.FindOpenPeriodByDate(ctx, evt.OrgID, evt.PayDate)
	if err != nil {
		return "", err
	}
	expenseAccount, err := h.resolver.Resolve(ctx, evt.OrgID, accounts.RolePayrollExpense, evt.ExpenseAccountID)
	if err != nil {
		return "", err
	}
	taxAccount, err := h.resolver.Resolve(ctx, evt.OrgID, accounts.RolePayrollTaxPayable, evt.TaxAccountID)
	if err != nil {
		return "", err
	}
	netAccount, err := h.resolver.Resolve(ctx, evt.OrgID, accounts.RolePayrollNetPayable, evt.NetAccountID)
	if err != nil {
		return "", err
	}
	lines := []journals.PostingLineInput{
		{AccountID: expenseAccount, Debit: gross, Memo: "gross pay"},
	}
	if deductions > 0 {
		lines = append(lines, journals.PostingLineInput{AccountID: taxAccount, Credit: deductions, Memo: "deductions withheld"})
	}
	if net > 0 {
		lines = append(lines, journals.PostingLineInput{AccountID: netAccount, Credit: net, Memo: "net pay owed"})
	}
	if len(lines) < 2 {
		return "", acctshared.ErrTooFewLines
	}
	return h.post(ctx, journals.PostingInput{
		OrgID:        evt.OrgID,
		PeriodID:     period.ID,
		Date:         evt.PayDate,
		SourceModule: "PAYROLL.RUN",
		SourceID:     uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("PAYROLL.RUN:%d", evt.ID))),
		Memo:         fmt.Sprintf("Payroll run %s", evt.RunNumber),
		PostedBy:     evt.ActorID,
		Lines:        lines,
	})
}

// HandleReceiptIssued books a cash sale: debit cash, credit sales revenue.
func (h *Hooks) HandleReceiptIssued(ctx context.Context, evt ar.ReceiptIssuedEvent) (string, error) {
	if evt.Date.IsZero() {
		return "", errors.New("posting: receipt date required")
	}
	total := round2(evt.Total)
	if total <= 0 {
		return "", errors.New("posting: receipt total must be positive")
	}
	period, err := h.periodRepo.FindOpenPeriodByDate(ctx, evt.OrgID, evt.Date)
	if err != nil {
		return "", err
	}
	cashAccount, err := h.resolver.Resolve(ctx, evt.OrgID, accounts.RoleSalesCash, evt.CashAccountID)
	if err != nil {
		return "", err
	}
	revenueAccount, err := h.resolver.Resolve(ctx, evt.OrgID, accounts.RoleSalesRevenue, evt.RevenueAccountID)
	if err != nil {
		return "", err
	}
	return h.post(ctx, journals.PostingInput{
		OrgID:        evt.OrgID,
		PeriodID:     period.ID,
		Date:         evt.Date,
		SourceModule: "AR.RECEIPT",
		SourceID:     uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("AR.RECEIPT:%d", evt.ID))),
		Memo:         fmt.Sprintf("Sales receipt %s", evt.Number),
		PostedBy:     evt.ActorID,
		Lines: []journals.PostingLineInput{
			{AccountID: cashAccount, Debit: total},
			{AccountID: revenueAccount, Credit: total},
		},
	})
}

// HandlePaymentReceived books a customer payment: debit cash, credit
// accounts receivable.
func (h *Hooks) HandlePaymentReceived(ctx context.Context, evt ar.PaymentReceivedEvent) (string, error) {
	if evt.Date.IsZero() {
		return "", errors.New("posting: payment date required")
	}
	amount := round2(evt.Amount)
	if amount <= 0 {
		return "", errors.New("posting: payment amount must be positive")
	}
	period, err := h.periodRepo.FindOpenPeriodByDate(ctx, evt.OrgID, evt.Date)
	if err != nil {
		return "", err
	}
	cashAccount, err := h.resolver.Resolve(ctx, evt.OrgID, accounts.RoleSalesCash, evt.CashAccountID)
	if err != nil {
		return "", err
	}
	receivableAccount, err := h.resolver.Resolve(ctx, evt.OrgID, accounts.RoleReceivable, evt.ReceivableAccountID)
	if err != nil {
		return "", err
	}
	return h.post(ctx, journals.PostingInput{
		OrgID:        evt.OrgID,
		PeriodID:     period.ID,
		Date:         evt.Date,
		SourceModule: "AR.PAYMENT",
		SourceID:     uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("AR.PAYMENT:%d", evt.ID))),
		Memo:         fmt.Sprintf("Payment %s", evt.Number),
		PostedBy:     evt.ActorID,
		Lines: []journals.PostingLineInput{
			{AccountID: cashAccount, Debit: amount},
			{AccountID: receivableAccount, Credit: amount},
		},
	})
}

// HandleCreditNoteIssued books a credit note: debit sales revenue, credit
// accounts receivable.
func (h *Hooks) HandleCreditNoteIssued(ctx context.Context, evt ar.CreditNoteIssuedEvent) (string, error) {
	if evt.Date.IsZero() {
		return "", errors.New("posting: credit note date required")
	}
	amount := round2(evt.Amount)
	if amount <= 0 {
		return "", errors.New("posting: credit note amount must be positive")
	}
	period, err := h.periodRepo.FindOpenPeriodByDate(ctx, evt.OrgID, evt.Date)
	if err != nil {
		return "", err
	}
	revenueAccount, err := h.resolver.Resolve(ctx, evt.OrgID, accounts.RoleSalesRevenue, evt.RevenueAccountID)
	if err != nil {
		return "", err
	}
	receivableAccount, err := h.resolver.Resolve(ctx, evt.OrgID, accounts.RoleReceivable, evt.ReceivableAccountID)
	if err != nil {
		return "", err
	}
	return h.post(ctx, journals.PostingInput{
		OrgID:        evt.OrgID,
		PeriodID:     period.ID,
		Date:         evt.Date,
		SourceModule: "AR.CREDITNOTE",
		SourceID:     uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("AR.CREDITNOTE:%d", evt.ID))),
		Memo:         fmt.Sprintf("Credit note %s", evt.Number),
		PostedBy:     evt.ActorID,
		Lines: []journals.PostingLineInput{
			{AccountID: revenueAccount, Debit: amount},
			{AccountID: receivableAccount, Credit: amount},
		},
	})
}
