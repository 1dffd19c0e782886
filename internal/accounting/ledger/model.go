package ledger

import "time"

// Query filters ledger lines by organisation, account, and date range.
type Query struct {
	OrgID     int64
	AccountID *int64
	From      *time.Time
	To        *time.Time
}

// Line is one ledger row: a posted journal line joined with its entry and
// account, carrying the running balance for its account.
type Line struct {
	EntryID      int64     `json:"entry_id"`
	EntryNumber  string    `json:"entry_number"`
	Date         time.Time `json:"date"`
	SourceModule string    `json:"source_module"`
	Memo         string    `json:"memo,omitempty"`
	AccountID    int64     `json:"account_id"`
	AccountCode  string    `json:"account_code"`
	AccountName  string    `json:"account_name"`
	Debit        float64   `json:"debit"`
	Credit       float64   `json:"credit"`
	Balance      float64   `json:"balance"`
}

// row is a ledger line as stored, before balances are accumulated.
type row struct {
	EntryID      int64
	EntryNumber  string
	Number       int64
	LineID       int64
	Date         time.Time
	SourceModule string
	Memo         string
	AccountID    int64
	AccountCode  string
	AccountName  string
	Debit        float64
	Credit       float64
}
