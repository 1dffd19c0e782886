package accounts

import "time"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// DebitNormal reports whether balances of this type grow on the debit side.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Valid reports whether the type is a known CoA category.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Account models a chart of accounts node scoped to an organisation.
type Account struct {
	ID                 int64
	OrgID              int64
	Code               string
	Name               string
	Type               AccountType
	Category           string
	ParentID           *int64
	Level              int
	IsParent           bool
	IsActive           bool
	AllowManualJournal bool
	Balance            float64
	Description        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
