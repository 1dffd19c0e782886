package accounts

// CreateAccountRequest is the payload for creating a chart of accounts entry.
type CreateAccountRequest struct {
	Code               string `json:"code" validate:"required"`
	Name               string `json:"name" validate:"required"`
	Type               string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Category           string `json:"category"`
	ParentID           *int64 `json:"parent_id"`
	AllowManualJournal bool   `json:"allow_manual_journal"`
	Description        string `json:"description"`
}

// UpdateAccountRequest is the payload for editing an account.
type UpdateAccountRequest struct {
	Name               string `json:"name" validate:"required"`
	Category           string `json:"category"`
	ParentID           *int64 `json:"parent_id"`
	AllowManualJournal bool   `json:"allow_manual_journal"`
	Description        string `json:"description"`
}

// AccountResponse is the JSON projection of an account.
type AccountResponse struct {
	ID                 int64   `json:"id"`
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	Category           string  `json:"category,omitempty"`
	ParentID           *int64  `json:"parent_id,omitempty"`
	Level              int     `json:"level"`
	IsParent           bool    `json:"is_parent"`
	IsActive           bool    `json:"is_active"`
	AllowManualJournal bool    `json:"allow_manual_journal"`
	Balance            float64 `json:"balance"`
	Description        string  `json:"description,omitempty"`
}

func toResponse(a Account) AccountResponse {
	return AccountResponse{
		ID:                 a.ID,
		Code:               a.Code,
		Name:               a.Name,
		Type:               string(a.Type),
		Category:           a.Category,
		ParentID:           a.ParentID,
		Level:              a.Level,
		IsParent:           a.IsParent,
		IsActive:           a.IsActive,
		AllowManualJournal: a.AllowManualJournal,
		Balance:            a.Balance,
		Description:        a.Description,
	}
}

func toResponses(accounts []Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toResponse(a))
	}
	return out
}
