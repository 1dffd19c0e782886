package posting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian/internal/accounting/accounts"
	"github.com/meridian-erp/meridian/internal/accounting/journals"
	"github.com/meridian-erp/meridian/internal/accounting/periods"
	acctshared "github.com/meridian-erp/meridian/internal/accounting/shared"
	"github.com/meridian-erp/meridian/internal/ar"
	"github.com/meridian-erp/meridian/internal/payroll"
)

// recordingLedger books entries in memory with source-link dedupe.
type recordingLedger struct {
	entries []journals.PostingInput
	linked  map[string]string
}

func newRecordingLedger() *recordingLedger {
	return &recordingLedger{linked: make(map[string]string)}
}

func linkKey(orgID int64, module string, ref uuid.UUID) string {
	return fmt.Sprintf("%d:%s:%s", orgID, module, ref)
}

func (l *recordingLedger) PostJournal(ctx context.Context, input journals.PostingInput) (journals.JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return journals.JournalEntry{}, err
	}
	key := linkKey(input.OrgID, input.SourceModule, input.SourceID)
	if _, ok := l.linked[key]; ok {
		return journals.JournalEntry{}, acctshared.ErrSourceAlreadyLinked
	}
	l.entries = append(l.entries, input)
	number := fmt.Sprintf("JE-TEST-%06d", len(l.entries))
	l.linked[key] = number
	debit, credit := input.Totals()
	return journals.JournalEntry{
		ID:          int64(len(l.entries)),
		OrgID:       input.OrgID,
		EntryNumber: number,
		TotalDebit:  debit,
		TotalCredit: credit,
		Status:      journals.JournalStatusPosted,
	}, nil
}

func (l *recordingLedger) FindEntryNumberBySource(ctx context.Context, orgID int64, module string, ref uuid.UUID) (string, error) {
	number, ok := l.linked[linkKey(orgID, module, ref)]
	if !ok {
		return "", acctshared.ErrJournalNotFound
	}
	return number, nil
}

type stubPeriodRepo struct {
	period periods.Period
	err    error
}

func (r stubPeriodRepo) FindOpenPeriodByDate(ctx context.Context, orgID int64, date time.Time) (periods.Period, error) {
	if r.err != nil {
		return periods.Period{}, r.err
	}
	return r.period, nil
}

// memoryAccounts backs the real resolver in tests.
type memoryAccounts struct {
	nextID   int64
	accounts map[int64]accounts.Account
	defaults map[accounts.Role]int64
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: make(map[int64]accounts.Account), defaults: make(map[accounts.Role]int64)}
}

func (m *memoryAccounts) List(ctx context.Context, orgID int64) ([]accounts.Account, error) {
	return nil, nil
}

func (m *memoryAccounts) Get(ctx context.Context, orgID, id int64) (accounts.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return accounts.Account{}, acctshared.ErrAccountNotFound
	}
	return a, nil
}

func (m *memoryAccounts) Create(ctx context.Context, account accounts.Account) (accounts.Account, error) {
	for _, existing := range m.accounts {
		if existing.Code == account.Code {
			return accounts.Account{}, acctshared.ErrDuplicateCode
		}
	}
	m.nextID++
	account.ID = m.nextID
	m.accounts[account.ID] = account
	return account, nil
}

func (m *memoryAccounts) Update(ctx context.Context, account accounts.Account) (accounts.Account, error) {
	m.accounts[account.ID] = account
	return account, nil
}

func (m *memoryAccounts) Deactivate(ctx context.Context, orgID, id int64) error {
	return nil
}

func (m *memoryAccounts) ListCodesForType(ctx context.Context, orgID int64, t accounts.AccountType) ([]string, error) {
	var codes []string
	for _, a := range m.accounts {
		if a.Type == t {
			codes = append(codes, a.Code)
		}
	}
	return codes, nil
}

func (m *memoryAccounts) FindByName(ctx context.Context, orgID int64, name string) (accounts.Account, error) {
	for _, a := range m.accounts {
		if strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return accounts.Account{}, acctshared.ErrAccountNotFound
}

func (m *memoryAccounts) GetDefault(ctx context.Context, orgID int64, role accounts.Role) (int64, error) {
	id, ok := m.defaults[role]
	if !ok {
		return 0, acctshared.ErrAccountNotFound
	}
	return id, nil
}

func (m *memoryAccounts) UpsertDefault(ctx context.Context, orgID int64, role accounts.Role, accountID int64) (int64, error) {
	if existing, ok := m.defaults[role]; ok {
		return existing, nil
	}
	m.defaults[role] = accountID
	return accountID, nil
}

func marchPeriod() periods.Period {
	return periods.Period{
		ID:        1,
		OrgID:     1,
		Status:    periods.PeriodStatusOpen,
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func newTestHooks() (*Hooks, *recordingLedger, *memoryAccounts) {
	ledger := newRecordingLedger()
	accts := newMemoryAccounts()
	hooks := NewHooks(ledger, stubPeriodRepo{period: marchPeriod()}, accounts.NewResolver(accts))
	return hooks, ledger, accts
}

func payrollEvent() payroll.RunCompletedEvent {
	return payroll.RunCompletedEvent{
		ID:              1,
		OrgID:           1,
		RunNumber:       "RUN-000001",
		PayDate:         time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalGrossPay:   10000,
		TotalDeductions: 1500,
		TotalNetPay:     8500,
		ActorID:         7,
	}
}

func TestHandlePayrollRunCompletedProvisionsAndBalances(t *testing.T) {
	hooks, ledger, accts := newTestHooks()

	entryNumber, err := hooks.HandlePayrollRunCompleted(context.Background(), payrollEvent())
	if err != nil {
		t.Fatalf("handle payroll: %v", err)
	}
	if entryNumber == "" {
		t.Fatal("expected entry number")
	}

	// The empty org gets all three payroll accounts provisioned.
	if len(accts.accounts) != 3 {
		t.Fatalf("expected 3 provisioned accounts, got %d", len(accts.accounts))
	}
	names := make(map[string]bool)
	for _, a := range accts.accounts {
		names[a.Name] = true
	}
	for _, want := range []string{"Salary Expense", "Tax Payable", "Salaries Payable"} {
		if !names[want] {
			t.Fatalf("missing provisioned account %q (have %v)", want, names)
		}
	}

	if len(ledger.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(ledger.entries))
	}
	entry := ledger.entries[0]
	if len(entry.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(entry.Lines))
	}
	debit, credit := entry.Totals()
	if debit != 10000 || credit != 10000 {
		t.Fatalf("expected balanced totals 10000/10000, got %v/%v", debit, credit)
	}
	if entry.Lines[0].Debit != 10000 {
		t.Fatalf("gross pay must be the debit line, got %+v", entry.Lines[0])
	}
	if entry.Lines[1].Credit != 1500 || entry.Lines[2].Credit != 8500 {
		t.Fatalf("deductions and net pay must be the credit lines, got %+v", entry.Lines[1:])
	}
}

func TestHandlePayrollRunCompletedIsIdempotent(t *testing.T) {
	hooks, ledger, _ := newTestHooks()

	first, err := hooks.HandlePayrollRunCompleted(context.Background(), payrollEvent())
	if err != nil {
		t.Fatalf("first post: %v", err)
	}
	second, err := hooks.HandlePayrollRunCompleted(context.Background(), payrollEvent())
	if err != nil {
		t.Fatalf("second post must be a no-op, got %v", err)
	}
	if first != second {
		t.Fatalf("expected the existing entry number back, got %q then %q", first, second)
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(ledger.entries))
	}
}

func TestHandlePayrollRunCompletedSkipsZeroDeductions(t *testing.T) {
	hooks, ledger, _ := newTestHooks()

	evt := payrollEvent()
	evt.TotalDeductions = 0
	evt.TotalNetPay = 10000
	if _, err := hooks.HandlePayrollRunCompleted(context.Background(), evt); err != nil {
		t.Fatalf("handle payroll: %v", err)
	}
	if got := len(ledger.entries[0].Lines); got != 2 {
		t.Fatalf("expected 2 lines without deductions, got %d", got)
	}
}

func TestHandlePayrollRunCompletedUsesOverrides(t *testing.T) {
	hooks, ledger, accts := newTestHooks()

	wages, _ := accts.Create(context.Background(), accounts.Account{OrgID: 1, Code: "5900", Name: "Wages", Type: accounts.AccountTypeExpense})
	evt := payrollEvent()
	evt.ExpenseAccountID = wages.ID
	if _, err := hooks.HandlePayrollRunCompleted(context.Background(), evt); err != nil {
		t.Fatalf("handle payroll: %v", err)
	}
	if ledger.entries[0].Lines[0].AccountID != wages.ID {
		t.Fatalf("expected override account %d on the expense line, got %d", wages.ID, ledger.entries[0].Lines[0].AccountID)
	}
}

func TestHandlePayrollRunCompletedFailsWithoutOpenPeriod(t *testing.T) {
	ledger := newRecordingLedger()
	hooks := NewHooks(ledger, stubPeriodRepo{err: acctshared.ErrInvalidPeriod}, accounts.NewResolver(newMemoryAccounts()))

	if _, err := hooks.HandlePayrollRunCompleted(context.Background(), payrollEvent()); !errors.Is(err, acctshared.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if len(ledger.entries) != 0 {
		t.Fatal("no entry must be booked without an open period")
	}
}

func TestHandleReceiptIssuedPostsCashAgainstRevenue(t *testing.T) {
	hooks, ledger, accts := newTestHooks()

	evt := ar.ReceiptIssuedEvent{ID: 5, OrgID: 1, Number: "SR-000005", Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Total: 750.50, ActorID: 7}
	if _, err := hooks.HandleReceiptIssued(context.Background(), evt); err != nil {
		t.Fatalf("handle receipt: %v", err)
	}
	entry := ledger.entries[0]
	debit, credit := entry.Totals()
	if debit != 750.50 || credit != 750.50 {
		t.Fatalf("expected balanced 750.50, got %v/%v", debit, credit)
	}
	cash := accts.accounts[entry.Lines[0].AccountID]
	revenue := accts.accounts[entry.Lines[1].AccountID]
	if cash.Type != accounts.AccountTypeAsset || revenue.Type != accounts.AccountTypeRevenue {
		t.Fatalf("expected cash debit and revenue credit, got %s / %s", cash.Type, revenue.Type)
	}
}

func TestHandlePaymentReceivedCreditsReceivable(t *testing.T) {
	hooks, ledger, accts := newTestHooks()

	evt := ar.PaymentReceivedEvent{ID: 6, OrgID: 1, Number: "PAY-000006", Date: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), Amount: 200, ActorID: 7}
	if _, err := hooks.HandlePaymentReceived(context.Background(), evt); err != nil {
		t.Fatalf("handle payment: %v", err)
	}
	entry := ledger.entries[0]
	receivable := accts.accounts[entry.Lines[1].AccountID]
	if receivable.Name != "Accounts Receivable" {
		t.Fatalf("expected receivable credit line, got %q", receivable.Name)
	}
	if entry.Lines[0].Debit != 200 || entry.Lines[1].Credit != 200 {
		t.Fatalf("unexpected lines %+v", entry.Lines)
	}
}

func TestHandleCreditNoteIssuedDebitsRevenue(t *testing.T) {
	hooks, ledger, accts := newTestHooks()

	evt := ar.CreditNoteIssuedEvent{ID: 7, OrgID: 1, Number: "CN-000007", Date: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), Amount: 120, ActorID: 7}
	if _, err := hooks.HandleCreditNoteIssued(context.Background(), evt); err != nil {
		t.Fatalf("handle credit note: %v", err)
	}
	entry := ledger.entries[0]
	revenue := accts.accounts[entry.Lines[0].AccountID]
	receivable := accts.accounts[entry.Lines[1].AccountID]
	if revenue.Type != accounts.AccountTypeRevenue || receivable.Name != "Accounts Receivable" {
		t.Fatalf("expected revenue debit and receivable credit, got %q / %q", revenue.Name, receivable.Name)
	}
	if entry.Lines[0].Debit != 120 || entry.Lines[1].Credit != 120 {
		t.Fatalf("unexpected lines %+v", entry.Lines)
	}
}
