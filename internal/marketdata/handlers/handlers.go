// Package handlers provides the raw price-history HTTP endpoint.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/internal/marketdata"
)

// assetPeriod is the history span served for chart bootstrap.
const assetPeriod = "1y"

// Handler handles asset data HTTP requests
type Handler struct {
	provider *marketdata.Provider
	log      zerolog.Logger
}

// NewHandler creates a new asset data handler
func NewHandler(provider *marketdata.Provider, log zerolog.Logger) *Handler {
	return &Handler{
		provider: provider,
		log:      log.With().Str("handler", "asset").Logger(),
	}
}

// RegisterRoutes registers the asset data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/asset/{ticker}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetAsset(w, r, chi.URLParam(r, "ticker"))
	})
}

// assetRow is one OHLC chart point.
type assetRow struct {
	Date  string  `json:"Date"`
	Close float64 `json:"Close"`
	Open  float64 `json:"Open"`
	High  float64 `json:"High"`
	Low   float64 `json:"Low"`
}

// HandleGetAsset handles GET /api/asset/{ticker}
func (h *Handler) HandleGetAsset(w http.ResponseWriter, r *http.Request, ticker string) {
	period := assetPeriod
	if v := r.URL.Query().Get("period"); v != "" {
		period = v
	}

	ps, err := h.provider.GetPriceSeries(ticker, period)
	if err != nil {
		status := apperr.HTTPStatus(err)
		h.log.Warn().Err(err).Str("ticker", ticker).Msg("Asset lookup failed")
		h.writeJSON(w, status, map[string]string{"detail": err.Error()})
		return
	}

	rows := make([]assetRow, len(ps.Candles))
	for i, c := range ps.Candles {
		rows[i] = assetRow{
			Date:  c.Date.Format("2006-01-02"),
			Close: c.Close,
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
		}
	}
	h.writeJSON(w, http.StatusOK, rows)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
