package payroll

import "time"

// CreateRunRequest is the payload for creating a draft run.
type CreateRunRequest struct {
	PayDate          string  `json:"pay_date" validate:"omitempty,datetime=2006-01-02"`
	TotalGrossPay    float64 `json:"total_gross_pay" validate:"required,gt=0"`
	TotalDeductions  float64 `json:"total_deductions" validate:"gte=0"`
	TotalNetPay      float64 `json:"total_net_pay" validate:"gte=0"`
	ExpenseAccountID int64   `json:"expense_account_id" validate:"omitempty,gt=0"`
	TaxAccountID     int64   `json:"tax_account_id" validate:"omitempty,gt=0"`
	NetAccountID     int64   `json:"net_account_id" validate:"omitempty,gt=0"`
}

// RunResponse is the JSON shape of a payroll run.
type RunResponse struct {
	ID              int64     `json:"id"`
	RunNumber       string    `json:"run_number"`
	PayDate         time.Time `json:"pay_date"`
	TotalGrossPay   float64   `json:"total_gross_pay"`
	TotalDeductions float64   `json:"total_deductions"`
	TotalNetPay     float64   `json:"total_net_pay"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// PostRunResponse is returned by the post endpoint.
type PostRunResponse struct {
	Success     bool   `json:"success"`
	EntryNumber string `json:"entry_number"`
}

func toRunResponse(r Run) RunResponse {
	return RunResponse{
		ID:              r.ID,
		RunNumber:       r.RunNumber,
		PayDate:         r.PayDate,
		TotalGrossPay:   r.TotalGrossPay,
		TotalDeductions: r.TotalDeductions,
		TotalNetPay:     r.TotalNetPay,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
	}
}
