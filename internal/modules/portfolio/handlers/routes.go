package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Post("/backtest", h.HandleBacktest)
		r.Post("/backtest-strategies", h.HandleBacktestStrategies)
		r.Post("/correlation", h.HandleCorrelation)
	})
}
