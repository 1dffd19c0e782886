package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	acctshared "github.com/meridian-erp/meridian/internal/accounting/shared"
	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return
	}
	accounts, err := h.service.List(r.Context(), orgID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": toResponses(accounts)})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	account, err := h.service.Get(r.Context(), orgID, id)
	if err != nil {
		h.respondServiceError(w, "get account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(account))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	if orgID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.ErrOrgRequired.Error())
		return
	}
	var req CreateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.Create(r.Context(), Account{
		OrgID:              orgID,
		Code:               req.Code,
		Name:               req.Name,
		Type:               AccountType(req.Type),
		Category:           req.Category,
		ParentID:           req.ParentID,
		AllowManualJournal: req.AllowManualJournal,
		Description:        req.Description,
	})
	if err != nil {
		h.respondServiceError(w, "create account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(account))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	var req UpdateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.Update(r.Context(), Account{
		ID:                 id,
		OrgID:              orgID,
		Name:               req.Name,
		Category:           req.Category,
		ParentID:           req.ParentID,
		AllowManualJournal: req.AllowManualJournal,
		Description:        req.Description,
	})
	if err != nil {
		h.respondServiceError(w, "update account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(account))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	if err := h.service.Deactivate(r.Context(), orgID, id); err != nil {
		h.respondServiceError(w, "deactivate account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) NextCode(w http.ResponseWriter, r *http.Request) {
	orgID := shared.OrgFromContext(r.Context())
	code, err := h.service.NextCode(r.Context(), orgID, AccountType(r.URL.Query().Get("type")))
	if err != nil {
		h.respondServiceError(w, "next code", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"code": code})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, acctshared.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, acctshared.ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
