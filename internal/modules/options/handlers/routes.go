package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all options routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/options", func(r chi.Router) {
		r.Post("/pricing", h.HandlePricing)
		r.Post("/stress", h.HandleStress)
		r.Post("/hedging", h.HandleHedging)
	})
}
