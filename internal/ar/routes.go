package ar

import "github.com/go-chi/chi/v5"

// MountRoutes registers receivable endpoints on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/receipts", func(r chi.Router) {
		r.Get("/", h.listReceipts)
		r.Post("/", h.createReceipt)
		r.Post("/{id}/issue", h.issueReceipt)
	})
	r.Post("/payments", h.registerPayment)
	r.Post("/credit-notes", h.issueCreditNote)
	r.Get("/aging", h.showAging)
}
