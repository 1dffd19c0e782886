package accounts

import "testing"

func TestNextCode(t *testing.T) {
	cases := []struct {
		name     string
		typ      AccountType
		existing []string
		want     string
	}{
		{name: "max plus ten", typ: AccountTypeAsset, existing: []string{"1000", "1010", "1050"}, want: "1060"},
		{name: "empty uses base", typ: AccountTypeAsset, existing: nil, want: "1000"},
		{name: "expense base", typ: AccountTypeExpense, existing: nil, want: "5000"},
		{name: "liability with gaps", typ: AccountTypeLiability, existing: []string{"2000", "2100"}, want: "2110"},
		{name: "non numeric ignored", typ: AccountTypeRevenue, existing: []string{"4000", "CASH", "4010-X"}, want: "4010"},
		{name: "below base stays at base", typ: AccountTypeAsset, existing: []string{"100"}, want: "1000"},
		{name: "unknown type falls back", typ: AccountType("WEIRD"), existing: nil, want: "9000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextCode(tc.typ, tc.existing); got != tc.want {
				t.Fatalf("NextCode(%s, %v) = %s, want %s", tc.typ, tc.existing, got, tc.want)
			}
		})
	}
}
