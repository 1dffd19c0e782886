package ar

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/shared"
)

// Handler exposes receivable endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

func (h *Handler) createReceipt(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return
	}
	var req CreateReceiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec := SalesReceipt{
		OrgID:            orgID,
		CustomerID:       req.CustomerID,
		Total:            req.Total,
		CashAccountID:    req.CashAccountID,
		RevenueAccountID: req.RevenueAccountID,
		CreatedBy:        shared.ActorFromContext(r.Context()),
	}
	var ok bool
	if rec.Date, ok = h.parseDate(w, req.Date); !ok {
		return
	}
	if rec.DueDate, ok = h.parseDate(w, req.DueDate); !ok {
		return
	}
	created, err := h.service.CreateReceipt(r.Context(), rec)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toReceiptResponse(*created))
}

func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return
	}
	receipts, err := h.service.ListReceipts(r.Context(), orgID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	out := make([]ReceiptResponse, 0, len(receipts))
	for _, rec := range receipts {
		out = append(out, toReceiptResponse(rec))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"receipts": out})
}

func (h *Handler) issueReceipt(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	entryNumber, err := h.service.IssueReceipt(r.Context(), orgID, id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, PostedResponse{Success: true, EntryNumber: entryNumber, DocumentID: id})
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return
	}
	var req RegisterPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p := Payment{
		OrgID:               orgID,
		ReceiptID:           req.ReceiptID,
		Amount:              req.Amount,
		CashAccountID:       req.CashAccountID,
		ReceivableAccountID: req.ReceivableAccountID,
	}
	var ok bool
	if p.Date, ok = h.parseDate(w, req.Date); !ok {
		return
	}
	created, entryNumber, err := h.service.RegisterPayment(r.Context(), p, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, PostedResponse{Success: true, EntryNumber: entryNumber, DocumentID: created.ID, Number: created.Number})
}

func (h *Handler) issueCreditNote(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return
	}
	var req IssueCreditNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	n := CreditNote{
		OrgID:               orgID,
		ReceiptID:           req.ReceiptID,
		Amount:              req.Amount,
		Reason:              req.Reason,
		RevenueAccountID:    req.RevenueAccountID,
		ReceivableAccountID: req.ReceivableAccountID,
	}
	var ok bool
	if n.Date, ok = h.parseDate(w, req.Date); !ok {
		return
	}
	created, entryNumber, err := h.service.IssueCreditNote(r.Context(), n, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, PostedResponse{Success: true, EntryNumber: entryNumber, DocumentID: created.ID, Number: created.Number})
}

func (h *Handler) showAging(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return
	}
	asOf := time.Time{}
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	bucket, err := h.service.CalculateAging(r.Context(), orgID, asOf)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bucket)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return 0, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid document id")
		return 0, 0, false
	}
	return orgID, id, true
}

func (h *Handler) parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dates must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrReceiptNotFound), errors.Is(err, ErrPaymentNotFound), errors.Is(err, ErrCreditNoteNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidDocStatus), errors.Is(err, ErrInvalidAmount):
		httpx.Problem(w, http.StatusConflict, "Invalid Document State", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
