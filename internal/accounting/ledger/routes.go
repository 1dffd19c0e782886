package ledger

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Lines)
	r.Get("/trial-balance", h.TrialBalance)
}
