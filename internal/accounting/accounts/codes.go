package accounts

import "strconv"

// typeBases maps account types to their conventional code range base.
// The range convention (1000s asset .. 5000s expense) is advisory only.
var typeBases = map[AccountType]int{
	AccountTypeAsset:     1000,
	AccountTypeLiability: 2000,
	AccountTypeEquity:    3000,
	AccountTypeRevenue:   4000,
	AccountTypeExpense:   5000,
}

// CodeBase returns the conventional starting code for the account type.
func CodeBase(t AccountType) int {
	if base, ok := typeBases[t]; ok {
		return base
	}
	return 9000
}

// NextCode computes the next account code for a type: highest existing
// numeric code plus ten, or the type base when no codes exist yet.
// Non-numeric codes are ignored.
func NextCode(t AccountType, existing []string) string {
	next := CodeBase(t)
	for _, code := range existing {
		n, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		if n+10 > next {
			next = n + 10
		}
	}
	return strconv.Itoa(next)
}
