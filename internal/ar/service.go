package ar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian/internal/shared"
)

// PostingHandler books finalized receivable documents to the general ledger.
// Implemented by the posting hooks.
type PostingHandler interface {
	HandleReceiptIssued(ctx context.Context, evt ReceiptIssuedEvent) (entryNumber string, err error)
	HandlePaymentReceived(ctx context.Context, evt PaymentReceivedEvent) (entryNumber string, err error)
	HandleCreditNoteIssued(ctx context.Context, evt CreditNoteIssuedEvent) (entryNumber string, err error)
}

// AuditPort records receivable events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages sales receipts, customer payments and credit notes.
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

// CreateReceipt records a draft sales receipt.
func (s *Service) CreateReceipt(ctx context.Context, rec SalesReceipt) (*SalesReceipt, error) {
	if rec.OrgID == 0 {
		return nil, shared.ErrOrgRequired
	}
	if rec.Total <= 0 {
		return nil, ErrInvalidAmount
	}
	if rec.Date.IsZero() {
		rec.Date = s.now()
	}
	if rec.DueDate.IsZero() {
		rec.DueDate = rec.Date.AddDate(0, 0, 30)
	}
	rec.Status = DocStatusDraft
	return s.repo.CreateReceipt(ctx, rec)
}

// GetReceipt fetches a receipt scoped to the organisation.
func (s *Service) GetReceipt(ctx context.Context, orgID, id int64) (*SalesReceipt, error) {
	return s.repo.GetReceipt(ctx, orgID, id)
}

// ListReceipts lists an organisation's receipts, newest first.
func (s *Service) ListReceipts(ctx context.Context, orgID int64) ([]SalesReceipt, error) {
	return s.repo.ListReceipts(ctx, orgID)
}

// IssueReceipt finalizes a draft receipt and books it: debit cash, credit
// revenue. Re-issuing a posted receipt is a no-op at the ledger.
func (s *Service) IssueReceipt(ctx context.Context, orgID, id, actorID int64) (string, error) {
	rec, err := s.repo.GetReceipt(ctx, orgID, id)
	if err != nil {
		return "", err
	}
	switch rec.Status {
	case DocStatusDraft:
		if err := s.repo.UpdateReceiptStatus(ctx, orgID, id, DocStatusDraft, DocStatusFinal); err != nil {
			return "", err
		}
	case DocStatusFinal, DocStatusPosted:
	default:
		return "", ErrInvalidDocStatus
	}
	entryNumber, err := s.posting.HandleReceiptIssued(ctx, ReceiptIssuedEvent{
		ID:               rec.ID,
		OrgID:            rec.OrgID,
		Number:           rec.Number,
		Date:             rec.Date,
		Total:            rec.Total,
		CashAccountID:    rec.CashAccountID,
		RevenueAccountID: rec.RevenueAccountID,
		ActorID:          actorID,
	})
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateReceiptStatus(ctx, orgID, id, DocStatusFinal, DocStatusPosted); err != nil {
		s.logger.Warn("receipt posted but status update failed",
			slog.Int64("receipt_id", id), slog.Any("error", err))
	}
	s.record(ctx, orgID, actorID, "ar.receipt.issue", "sales_receipt", rec.ID, entryNumber)
	return entryNumber, nil
}

// RegisterPayment records cash received against a receipt and books it:
// debit cash, credit accounts receivable.
func (s *Service) RegisterPayment(ctx context.Context, p Payment, actorID int64) (*Payment, string, error) {
	if p.OrgID == 0 {
		return nil, "", shared.ErrOrgRequired
	}
	if p.Amount <= 0 {
		return nil, "", ErrInvalidAmount
	}
	rec, err := s.repo.GetReceipt(ctx, p.OrgID, p.ReceiptID)
	if err != nil {
		return nil, "", err
	}
	if rec.Status == DocStatusVoid || rec.Status == DocStatusDraft {
		return nil, "", ErrInvalidDocStatus
	}
	if p.Date.IsZero() {
		p.Date = s.now()
	}
	p.CustomerID = rec.CustomerID
	p.Status = DocStatusFinal
	p.CreatedBy = actorID
	created, err := s.repo.CreatePayment(ctx, p)
	if err != nil {
		return nil, "", fmt.Errorf("create payment: %w", err)
	}
	entryNumber, err := s.posting.HandlePaymentReceived(ctx, PaymentReceivedEvent{
		ID:                  created.ID,
		OrgID:               created.OrgID,
		Number:              created.Number,
		Date:                created.Date,
		Amount:              created.Amount,
		CashAccountID:       created.CashAccountID,
		ReceivableAccountID: created.ReceivableAccountID,
		ActorID:             actorID,
	})
	if err != nil {
		return created, "", err
	}
	if err := s.repo.UpdatePaymentStatus(ctx, p.OrgID, created.ID, DocStatusFinal, DocStatusPosted); err != nil {
		s.logger.Warn("payment posted but status update failed",
			slog.Int64("payment_id", created.ID), slog.Any("error", err))
	} else {
		created.Status = DocStatusPosted
	}
	s.record(ctx, p.OrgID, actorID, "ar.payment.register", "ar_payment", created.ID, entryNumber)
	return created, entryNumber, nil
}

// IssueCreditNote reduces a receivable: debit revenue, credit accounts
// receivable.
func (s *Service) IssueCreditNote(ctx context.Context, n CreditNote, actorID int64) (*CreditNote, string, error) {
	if n.OrgID == 0 {
		return nil, "", shared.ErrOrgRequired
	}
	if n.Amount <= 0 {
		return nil, "", ErrInvalidAmount
	}
	rec, err := s.repo.GetReceipt(ctx, n.OrgID, n.ReceiptID)
	if err != nil {
		return nil, "", err
	}
	if rec.Status == DocStatusVoid || rec.Status == DocStatusDraft {
		return nil, "", ErrInvalidDocStatus
	}
	if n.Date.IsZero() {
		n.Date = s.now()
	}
	n.CustomerID = rec.CustomerID
	n.Status = DocStatusFinal
	n.CreatedBy = actorID
	created, err := s.repo.CreateCreditNote(ctx, n)
	if err != nil {
		return nil, "", fmt.Errorf("create credit note: %w", err)
	}
	entryNumber, err := s.posting.HandleCreditNoteIssued(ctx, CreditNoteIssuedEvent{
		ID:                  created.ID,
		OrgID:               created.OrgID,
		Number:              created.Number,
		Date:                created.Date,
		Amount:              created.Amount,
		RevenueAccountID:    created.RevenueAccountID,
		ReceivableAccountID: created.ReceivableAccountID,
		ActorID:             actorID,
	})
	if err != nil {
		return created, "", err
	}
	if err := s.repo.UpdateCreditNoteStatus(ctx, n.OrgID, created.ID, DocStatusFinal, DocStatusPosted); err != nil {
		s.logger.Warn("credit note posted but status update failed",
			slog.Int64("credit_note_id", created.ID), slog.Any("error", err))
	} else {
		created.Status = DocStatusPosted
	}
	s.record(ctx, n.OrgID, actorID, "ar.creditnote.issue", "ar_credit_note", created.ID, entryNumber)
	return created, entryNumber, nil
}

// CalculateAging groups unsettled receipt balances by days overdue.
func (s *Service) CalculateAging(ctx context.Context, orgID int64, asOf time.Time) (AgingBucket, error) {
	outstanding, err := s.repo.ListOutstanding(ctx, orgID)
	if err != nil {
		return AgingBucket{}, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	var bucket AgingBucket
	for _, o := range outstanding {
		if o.Outstanding <= 0 {
			continue
		}
		days := int(asOf.Sub(o.Receipt.DueDate).Hours() / 24)
		switch {
		case days <= 0:
			bucket.Current += o.Outstanding
		case days <= 30:
			bucket.Bucket30 += o.Outstanding
		case days <= 60:
			bucket.Bucket60 += o.Outstanding
		case days <= 90:
			bucket.Bucket90 += o.Outstanding
		default:
			bucket.Bucket120 += o.Outstanding
		}
	}
	return bucket, nil
}

func (s *Service) record(ctx context.Context, orgID, actorID int64, action, entity string, entityID int64, entryNumber string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    orgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     map[string]any{"entry_number": entryNumber},
	})
}
