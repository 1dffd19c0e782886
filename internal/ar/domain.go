package ar

import (
	"errors"
	"time"
)

// DocStatus enumerates receivable document states.
type DocStatus string

const (
	DocStatusDraft  DocStatus = "DRAFT"
	DocStatusFinal  DocStatus = "FINAL"
	DocStatusPosted DocStatus = "POSTED"
	DocStatusVoid   DocStatus = "VOID"
)

// SalesReceipt records a cash sale. Issuing one books cash against revenue.
type SalesReceipt struct {
	ID               int64
	OrgID            int64
	Number           string
	CustomerID       int64
	Date             time.Time
	DueDate          time.Time
	Total            float64
	Status           DocStatus
	CashAccountID    int64
	RevenueAccountID int64
	CreatedBy        int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Payment records cash received against an outstanding receipt.
type Payment struct {
	ID                  int64
	OrgID               int64
	Number              string
	ReceiptID           int64
	CustomerID          int64
	Date                time.Time
	Amount              float64
	Status              DocStatus
	CashAccountID       int64
	ReceivableAccountID int64
	CreatedBy           int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CreditNote reduces a customer's receivable and the matching revenue.
type CreditNote struct {
	ID                  int64
	OrgID               int64
	Number              string
	ReceiptID           int64
	CustomerID          int64
	Date                time.Time
	Amount              float64
	Reason              string
	Status              DocStatus
	RevenueAccountID    int64
	ReceivableAccountID int64
	CreatedBy           int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ReceiptIssuedEvent is handed to the posting pipeline when a receipt goes
// FINAL.
type ReceiptIssuedEvent struct {
	ID               int64
	OrgID            int64
	Number           string
	Date             time.Time
	Total            float64
	CashAccountID    int64
	RevenueAccountID int64
	ActorID          int64
}

// PaymentReceivedEvent is handed to the posting pipeline when a payment is
// registered.
type PaymentReceivedEvent struct {
	ID                  int64
	OrgID               int64
	Number              string
	Date                time.Time
	Amount              float64
	CashAccountID       int64
	ReceivableAccountID int64
	ActorID             int64
}

// CreditNoteIssuedEvent is handed to the posting pipeline when a credit note
// is issued.
type CreditNoteIssuedEvent struct {
	ID                  int64
	OrgID               int64
	Number              string
	Date                time.Time
	Amount              float64
	RevenueAccountID    int64
	ReceivableAccountID int64
	ActorID             int64
}

var (
	// ErrReceiptNotFound indicates a missing sales receipt.
	ErrReceiptNotFound = errors.New("ar: sales receipt not found")
	// ErrPaymentNotFound indicates a missing payment.
	ErrPaymentNotFound = errors.New("ar: payment not found")
	// ErrCreditNoteNotFound indicates a missing credit note.
	ErrCreditNoteNotFound = errors.New("ar: credit note not found")
	// ErrInvalidDocStatus indicates the document is not in a usable state.
	ErrInvalidDocStatus = errors.New("ar: document status does not allow this operation")
	// ErrInvalidAmount indicates a non-positive monetary amount.
	ErrInvalidAmount = errors.New("ar: amount must be positive")
)

// AgingBucket summarises outstanding receivables by days overdue.
type AgingBucket struct {
	Current   float64 `json:"current"`
	Bucket30  float64 `json:"bucket_30"`
	Bucket60  float64 `json:"bucket_60"`
	Bucket90  float64 `json:"bucket_90"`
	Bucket120 float64 `json:"bucket_120"`
}

// OutstandingReceipt pairs a receipt with its unsettled balance.
type OutstandingReceipt struct {
	Receipt     SalesReceipt
	Outstanding float64
}
