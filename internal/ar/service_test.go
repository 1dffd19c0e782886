package ar

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type memoryARRepo struct {
	nextID      int64
	receipts    map[int64]*SalesReceipt
	payments    map[int64]*Payment
	creditNotes map[int64]*CreditNote
}

func newMemoryARRepo() *memoryARRepo {
	return &memoryARRepo{
		receipts:    make(map[int64]*SalesReceipt),
		payments:    make(map[int64]*Payment),
		creditNotes: make(map[int64]*CreditNote),
	}
}

func (r *memoryARRepo) CreateReceipt(ctx context.Context, rec SalesReceipt) (*SalesReceipt, error) {
	r.nextID++
	rec.ID = r.nextID
	rec.Number = fmt.Sprintf("SR-%06d", rec.ID)
	r.receipts[rec.ID] = &rec
	copied := rec
	return &copied, nil
}

func (r *memoryARRepo) GetReceipt(ctx context.Context, orgID, id int64) (*SalesReceipt, error) {
	rec, ok := r.receipts[id]
	if !ok || rec.OrgID != orgID {
		return nil, ErrReceiptNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *memoryARRepo) ListReceipts(ctx context.Context, orgID int64) ([]SalesReceipt, error) {
	var out []SalesReceipt
	for _, rec := range r.receipts {
		if rec.OrgID == orgID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memoryARRepo) UpdateReceiptStatus(ctx context.Context, orgID, id int64, from, to DocStatus) error {
	rec, ok := r.receipts[id]
	if !ok || rec.OrgID != orgID || rec.Status != from {
		return ErrReceiptNotFound
	}
	rec.Status = to
	return nil
}

func (r *memoryARRepo) CreatePayment(ctx context.Context, p Payment) (*Payment, error) {
	r.nextID++
	p.ID = r.nextID
	p.Number = fmt.Sprintf("PAY-%06d", p.ID)
	r.payments[p.ID] = &p
	copied := p
	return &copied, nil
}

func (r *memoryARRepo) GetPayment(ctx context.Context, orgID, id int64) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok || p.OrgID != orgID {
		return nil, ErrPaymentNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryARRepo) UpdatePaymentStatus(ctx context.Context, orgID, id int64, from, to DocStatus) error {
	p, ok := r.payments[id]
	if !ok || p.OrgID != orgID || p.Status != from {
		return ErrPaymentNotFound
	}
	p.Status = to
	return nil
}

func (r *memoryARRepo) CreateCreditNote(ctx context.Context, n CreditNote) (*CreditNote, error) {
	r.nextID++
	n.ID = r.nextID
	n.Number = fmt.Sprintf("CN-%06d", n.ID)
	r.creditNotes[n.ID] = &n
	copied := n
	return &copied, nil
}

func (r *memoryARRepo) GetCreditNote(ctx context.Context, orgID, id int64) (*CreditNote, error) {
	n, ok := r.creditNotes[id]
	if !ok || n.OrgID != orgID {
		return nil, ErrCreditNoteNotFound
	}
	copied := *n
	return &copied, nil
}

func (r *memoryARRepo) UpdateCreditNoteStatus(ctx context.Context, orgID, id int64, from, to DocStatus) error {
	n, ok := r.creditNotes[id]
	if !ok || n.OrgID != orgID || n.Status != from {
		return ErrCreditNoteNotFound
	}
	n.Status = to
	return nil
}

func (r *memoryARRepo) ListOutstanding(ctx context.Context, orgID int64) ([]OutstandingReceipt, error) {
	var out []OutstandingReceipt
	for _, rec := range r.receipts {
		if rec.OrgID != orgID || rec.Status == DocStatusDraft || rec.Status == DocStatusVoid {
			continue
		}
		outstanding := rec.Total
		for _, p := range r.payments {
			if p.ReceiptID == rec.ID && p.Status == DocStatusPosted {
				outstanding -= p.Amount
			}
		}
		for _, n := range r.creditNotes {
			if n.ReceiptID == rec.ID && n.Status == DocStatusPosted {
				outstanding -= n.Amount
			}
		}
		out = append(out, OutstandingReceipt{Receipt: *rec, Outstanding: outstanding})
	}
	return out, nil
}

type stubARPosting struct {
	receipts    int
	payments    int
	creditNotes int
	err         error
}

func (p *stubARPosting) HandleReceiptIssued(ctx context.Context, evt ReceiptIssuedEvent) (string, error) {
	p.receipts++
	return "JE-AR-000001", p.err
}

func (p *stubARPosting) HandlePaymentReceived(ctx context.Context, evt PaymentReceivedEvent) (string, error) {
	p.payments++
	return "JE-AR-000002", p.err
}

func (p *stubARPosting) HandleCreditNoteIssued(ctx context.Context, evt CreditNoteIssuedEvent) (string, error) {
	p.creditNotes++
	return "JE-AR-000003", p.err
}

func newTestService(t *testing.T) (*Service, *memoryARRepo, *stubARPosting) {
	t.Helper()
	repo := newMemoryARRepo()
	posting := &stubARPosting{}
	return NewService(repo, posting, nil, nil), repo, posting
}

func issuedReceipt(t *testing.T, svc *Service, total float64, due time.Time) *SalesReceipt {
	t.Helper()
	rec, err := svc.CreateReceipt(context.Background(), SalesReceipt{OrgID: 1, CustomerID: 100, Total: total, DueDate: due})
	if err != nil {
		t.Fatalf("create receipt: %v", err)
	}
	if _, err := svc.IssueReceipt(context.Background(), 1, rec.ID, 7); err != nil {
		t.Fatalf("issue receipt: %v", err)
	}
	return rec
}

func TestIssueReceiptPostsOnce(t *testing.T) {
	svc, repo, posting := newTestService(t)
	rec := issuedReceipt(t, svc, 500, time.Now().AddDate(0, 0, 30))

	if repo.receipts[rec.ID].Status != DocStatusPosted {
		t.Fatalf("expected POSTED, got %s", repo.receipts[rec.ID].Status)
	}
	if posting.receipts != 1 {
		t.Fatalf("expected one posting call, got %d", posting.receipts)
	}

	// Issuing again succeeds; the ledger dedupes on the source link.
	entryNumber, err := svc.IssueReceipt(context.Background(), 1, rec.ID, 7)
	if err != nil {
		t.Fatalf("re-issue: %v", err)
	}
	if entryNumber == "" {
		t.Fatal("expected entry number on re-issue")
	}
}

func TestRegisterPaymentAgainstReceipt(t *testing.T) {
	svc, repo, posting := newTestService(t)
	rec := issuedReceipt(t, svc, 500, time.Now().AddDate(0, 0, 30))

	p, entryNumber, err := svc.RegisterPayment(context.Background(), Payment{OrgID: 1, ReceiptID: rec.ID, Amount: 200}, 7)
	if err != nil {
		t.Fatalf("register payment: %v", err)
	}
	if entryNumber != "JE-AR-000002" {
		t.Fatalf("unexpected entry number %q", entryNumber)
	}
	if repo.payments[p.ID].Status != DocStatusPosted {
		t.Fatalf("expected POSTED payment, got %s", repo.payments[p.ID].Status)
	}
	if p.CustomerID != 100 {
		t.Fatalf("payment must inherit the receipt customer, got %d", p.CustomerID)
	}
	if posting.payments != 1 {
		t.Fatalf("expected one posting call, got %d", posting.payments)
	}
}

func TestRegisterPaymentRejectsUnknownReceipt(t *testing.T) {
	svc, _, posting := newTestService(t)
	_, _, err := svc.RegisterPayment(context.Background(), Payment{OrgID: 1, ReceiptID: 999, Amount: 200}, 7)
	if !errors.Is(err, ErrReceiptNotFound) {
		t.Fatalf("expected ErrReceiptNotFound, got %v", err)
	}
	if posting.payments != 0 {
		t.Fatal("no entry must be booked for an unknown receipt")
	}
}

func TestIssueCreditNoteReducesOutstanding(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := issuedReceipt(t, svc, 500, time.Now().AddDate(0, 0, 30))

	if _, _, err := svc.IssueCreditNote(context.Background(), CreditNote{OrgID: 1, ReceiptID: rec.ID, Amount: 100, Reason: "damaged goods"}, 7); err != nil {
		t.Fatalf("issue credit note: %v", err)
	}

	bucket, err := svc.CalculateAging(context.Background(), 1, time.Now())
	if err != nil {
		t.Fatalf("aging: %v", err)
	}
	if bucket.Current != 400 {
		t.Fatalf("expected outstanding 400, got %+v", bucket)
	}
}

func TestCalculateAgingBuckets(t *testing.T) {
	svc, _, _ := newTestService(t)
	now := time.Now()

	issuedReceipt(t, svc, 100, now.AddDate(0, 0, 5))
	issuedReceipt(t, svc, 200, now.AddDate(0, 0, -20))
	issuedReceipt(t, svc, 300, now.AddDate(0, 0, -50))
	issuedReceipt(t, svc, 400, now.AddDate(0, 0, -80))
	issuedReceipt(t, svc, 500, now.AddDate(0, 0, -200))

	bucket, err := svc.CalculateAging(context.Background(), 1, now)
	if err != nil {
		t.Fatalf("aging: %v", err)
	}
	if bucket.Current != 100 {
		t.Fatalf("current: got %v", bucket.Current)
	}
	if bucket.Bucket30 != 200 {
		t.Fatalf("bucket30: got %v", bucket.Bucket30)
	}
	if bucket.Bucket60 != 300 {
		t.Fatalf("bucket60: got %v", bucket.Bucket60)
	}
	if bucket.Bucket90 != 400 {
		t.Fatalf("bucket90: got %v", bucket.Bucket90)
	}
	if bucket.Bucket120 != 500 {
		t.Fatalf("bucket120: got %v", bucket.Bucket120)
	}
}

func TestCreateReceiptRejectsNonPositiveTotal(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.CreateReceipt(context.Background(), SalesReceipt{OrgID: 1, CustomerID: 100, Total: 0}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
