package ar

import "time"

// CreateReceiptRequest is the payload for recording a draft sales receipt.
type CreateReceiptRequest struct {
	CustomerID       int64   `json:"customer_id" validate:"required,gt=0"`
	Date             string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DueDate          string  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Total            float64 `json:"total" validate:"required,gt=0"`
	CashAccountID    int64   `json:"cash_account_id" validate:"omitempty,gt=0"`
	RevenueAccountID int64   `json:"revenue_account_id" validate:"omitempty,gt=0"`
}

// RegisterPaymentRequest records cash received against a receipt.
type RegisterPaymentRequest struct {
	ReceiptID           int64   `json:"receipt_id" validate:"required,gt=0"`
	Date                string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Amount              float64 `json:"amount" validate:"required,gt=0"`
	CashAccountID       int64   `json:"cash_account_id" validate:"omitempty,gt=0"`
	ReceivableAccountID int64   `json:"receivable_account_id" validate:"omitempty,gt=0"`
}

// IssueCreditNoteRequest reduces a receivable.
type IssueCreditNoteRequest struct {
	ReceiptID           int64   `json:"receipt_id" validate:"required,gt=0"`
	Date                string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Amount              float64 `json:"amount" validate:"required,gt=0"`
	Reason              string  `json:"reason" validate:"omitempty,max=500"`
	RevenueAccountID    int64   `json:"revenue_account_id" validate:"omitempty,gt=0"`
	ReceivableAccountID int64   `json:"receivable_account_id" validate:"omitempty,gt=0"`
}

// ReceiptResponse is the JSON shape of a sales receipt.
type ReceiptResponse struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	CustomerID int64     `json:"customer_id"`
	Date       time.Time `json:"date"`
	DueDate    time.Time `json:"due_date"`
	Total      float64   `json:"total"`
	Status     string    `json:"status"`
}

// PostedResponse is returned by endpoints that book a journal entry.
type PostedResponse struct {
	Success     bool   `json:"success"`
	EntryNumber string `json:"entry_number"`
	DocumentID  int64  `json:"document_id,omitempty"`
	Number      string `json:"number,omitempty"`
}

func toReceiptResponse(rec SalesReceipt) ReceiptResponse {
	return ReceiptResponse{
		ID:         rec.ID,
		Number:     rec.Number,
		CustomerID: rec.CustomerID,
		Date:       rec.Date,
		DueDate:    rec.DueDate,
		Total:      rec.Total,
		Status:     string(rec.Status),
	}
}
