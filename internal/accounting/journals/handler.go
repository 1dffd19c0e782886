package journals

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian/internal/accounting/shared"
	"github.com/meridian-erp/meridian/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian/internal/shared"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := internalShared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", internalShared.ErrOrgRequired.Error())
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	entries, pagination, err := h.service.List(r.Context(), orgID, page, perPage)
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"journal_entries": toEntryResponses(entries),
		"pagination":      pagination,
	})
}

type voidRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	orgID := internalShared.OrgFromContext(r.Context())
	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	var req voidRequest
	_ = httpx.DecodeJSON(r, &req)
	entry, err := h.service.VoidJournal(r.Context(), VoidInput{
		OrgID:   orgID,
		EntryID: entryID,
		ActorID: internalShared.ActorFromContext(r.Context()),
		Reason:  req.Reason,
	})
	if err != nil {
		h.respondServiceError(w, "void journal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "entry": toEntryResponse(entry)})
}

type reverseRequest struct {
	Memo string `json:"memo"`
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	orgID := internalShared.OrgFromContext(r.Context())
	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	var req reverseRequest
	_ = httpx.DecodeJSON(r, &req)
	reversal, err := h.service.ReverseJournal(r.Context(), ReverseInput{
		OrgID:   orgID,
		EntryID: entryID,
		ActorID: internalShared.ActorFromContext(r.Context()),
		Memo:    req.Memo,
	})
	if err != nil {
		h.respondServiceError(w, "reverse journal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "entry": toEntryResponse(reversal)})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrJournalNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrPeriodLocked),
		errors.Is(err, shared.ErrInvalidPeriod),
		errors.Is(err, shared.ErrInvalidStatus),
		errors.Is(err, shared.ErrDateOutOfRange):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// EntryResponse is the JSON projection of a journal entry.
type EntryResponse struct {
	ID           int64          `json:"id"`
	EntryNumber  string         `json:"entry_number"`
	PeriodID     int64          `json:"period_id"`
	Date         string         `json:"date"`
	SourceModule string         `json:"source_module"`
	SourceID     string         `json:"source_id"`
	Memo         string         `json:"memo,omitempty"`
	TotalDebit   float64        `json:"total_debit"`
	TotalCredit  float64        `json:"total_credit"`
	Status       string         `json:"status"`
	Lines        []LineResponse `json:"lines,omitempty"`
}

// LineResponse is the JSON projection of a journal line.
type LineResponse struct {
	AccountID int64   `json:"account_id"`
	Memo      string  `json:"memo,omitempty"`
	Debit     float64 `json:"debit"`
	Credit    float64 `json:"credit"`
}

func toEntryResponse(e JournalEntry) EntryResponse {
	resp := EntryResponse{
		ID:           e.ID,
		EntryNumber:  e.EntryNumber,
		PeriodID:     e.PeriodID,
		Date:         e.Date.Format("2006-01-02"),
		SourceModule: e.SourceModule,
		SourceID:     e.SourceID.String(),
		Memo:         e.Memo,
		TotalDebit:   e.TotalDebit,
		TotalCredit:  e.TotalCredit,
		Status:       string(e.Status),
	}
	for _, line := range e.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			AccountID: line.AccountID,
			Memo:      line.Memo,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	return resp
}

func toEntryResponses(entries []JournalEntry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}
