package accounts

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-erp/meridian/internal/accounting/shared"
)

// Role identifies a semantic ledger slot that posting functions resolve
// to a concrete account (override, then organisation default, then an
// auto-provisioned account).
type Role string

const (
	RolePayrollExpense    Role = "payroll.expense"
	RolePayrollTaxPayable Role = "payroll.tax_payable"
	RolePayrollNetPayable Role = "payroll.net_payable"
	RoleSalesCash         Role = "sales.cash"
	RoleSalesRevenue      Role = "sales.revenue"
	RoleReceivable        Role = "ar.receivable"
)

// RoleSpec describes how an account for a role is provisioned.
type RoleSpec struct {
	Role     Role
	Name     string
	Type     AccountType
	Category string
}

var roleSpecs = map[Role]RoleSpec{
	RolePayrollExpense:    {Role: RolePayrollExpense, Name: "salary expense", Type: AccountTypeExpense},
	RolePayrollTaxPayable: {Role: RolePayrollTaxPayable, Name: "tax payable", Type: AccountTypeLiability},
	RolePayrollNetPayable: {Role: RolePayrollNetPayable, Name: "salaries payable", Type: AccountTypeLiability},
	RoleSalesCash:         {Role: RoleSalesCash, Name: "cash", Type: AccountTypeAsset},
	RoleSalesRevenue:      {Role: RoleSalesRevenue, Name: "sales revenue", Type: AccountTypeRevenue},
	RoleReceivable:        {Role: RoleReceivable, Name: "accounts receivable", Type: AccountTypeAsset},
}

var titleCaser = cases.Title(language.English)

// Spec resolves the provisioning spec for a role. The category defaults by
// type: expense roles land in operating_expenses, everything else in
// current_liabilities unless the spec says otherwise.
func Spec(role Role) (RoleSpec, error) {
	spec, ok := roleSpecs[role]
	if !ok {
		return RoleSpec{}, shared.ErrUnknownRole
	}
	if spec.Category == "" {
		if spec.Type == AccountTypeExpense {
			spec.Category = "operating_expenses"
		} else {
			spec.Category = "current_liabilities"
		}
	}
	return spec, nil
}

// DisplayName returns the title-cased account name used when a role account
// is auto-provisioned, e.g. "salary expense" -> "Salary Expense".
func (s RoleSpec) DisplayName() string {
	return titleCaser.String(s.Name)
}
