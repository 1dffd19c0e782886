package payroll

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

// Handler exposes payroll run endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

func (h *Handler) createRun(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return
	}
	var req CreateRunRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := RunInput{
		OrgID:            orgID,
		TotalGrossPay:    req.TotalGrossPay,
		TotalDeductions:  req.TotalDeductions,
		TotalNetPay:      req.TotalNetPay,
		ExpenseAccountID: req.ExpenseAccountID,
		TaxAccountID:     req.TaxAccountID,
		NetAccountID:     req.NetAccountID,
		CreatedBy:        shared.ActorFromContext(r.Context()),
	}
	if req.PayDate != "" {
		d, err := time.Parse("2006-01-02", req.PayDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "pay_date must be YYYY-MM-DD")
			return
		}
		input.PayDate = d
	}
	run, err := h.service.CreateRun(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRunResponse(*run))
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return
	}
	runs, err := h.service.ListRuns(r.Context(), orgID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	out := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	run, err := h.service.GetRun(r.Context(), orgID, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRunResponse(*run))
}

func (h *Handler) completeRun(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	run, err := h.service.CompleteRun(r.Context(), orgID, id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRunResponse(*run))
}

func (h *Handler) postRun(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	entryNumber, err := h.service.PostRun(r.Context(), orgID, id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, PostRunResponse{Success: true, EntryNumber: entryNumber})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return 0, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid run id")
		return 0, 0, false
	}
	return orgID, id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRunNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrRunNotCompleted), errors.Is(err, ErrTotalsMismatch):
		httpx.Problem(w, http.StatusConflict, "Invalid Run State", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
