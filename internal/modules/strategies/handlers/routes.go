package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all backtest and forecast routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/backtest", func(r chi.Router) {
		r.Get("/sma/{ticker}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleBacktestSMA(w, r, chi.URLParam(r, "ticker"))
		})
		r.Get("/mean-reversion/{ticker}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleBacktestMeanReversion(w, r, chi.URLParam(r, "ticker"))
		})
		r.Get("/ml/{ticker}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleBacktestML(w, r, chi.URLParam(r, "ticker"))
		})
	})

	r.Get("/forecast/ml/{ticker}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleForecastML(w, r, chi.URLParam(r, "ticker"))
	})
}
