package payroll

import "github.com/go-chi/chi/v5"

// MountRoutes registers payroll endpoints on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", h.listRuns)
		r.Post("/", h.createRun)
		r.Get("/{id}", h.getRun)
		r.Post("/{id}/complete", h.completeRun)
		r.Post("/{id}/post", h.postRun)
	})
}
