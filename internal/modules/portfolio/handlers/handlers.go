// Package handlers provides HTTP handlers for portfolio composition and
// correlation analysis.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/internal/marketdata"
	"github.com/aristath/quantdesk/internal/modules/correlation"
	"github.com/aristath/quantdesk/internal/modules/portfolio"
	"github.com/aristath/quantdesk/internal/modules/series"
	"github.com/aristath/quantdesk/internal/modules/strategies"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	provider      *marketdata.Provider
	compositor    *portfolio.Compositor
	correlation   *correlation.Engine
	evaluator     *strategies.Evaluator
	defaultPeriod string
	log           zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(
	provider *marketdata.Provider,
	compositor *portfolio.Compositor,
	correlationEngine *correlation.Engine,
	evaluator *strategies.Evaluator,
	defaultPeriod string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		provider:      provider,
		compositor:    compositor,
		correlation:   correlationEngine,
		evaluator:     evaluator,
		defaultPeriod: defaultPeriod,
		log:           log.With().Str("handler", "portfolio").Logger(),
	}
}

// portfolioRow is one chart point of the combined series.
type portfolioRow struct {
	Date                string  `json:"Date"`
	PortfolioCumulative float64 `json:"Portfolio_Cumulative"`
}

type backtestRequest struct {
	Tickers            []string           `json:"tickers"`
	Weights            map[string]float64 `json:"weights"`
	RebalanceFrequency string             `json:"rebalance_frequency"`
	Period             string             `json:"period"`
}

// HandleBacktest handles POST /api/portfolio/backtest
func (h *Handler) HandleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.InvalidParameterError{Detail: "invalid request body"})
		return
	}
	if len(req.Tickers) == 0 {
		h.writeError(w, apperr.InvalidParameterError{Detail: "tickers must not be empty"})
		return
	}

	freq, err := portfolio.ParseRebalanceFrequency(req.RebalanceFrequency)
	if err != nil {
		h.writeError(w, err)
		return
	}

	period := req.Period
	if period == "" {
		period = h.defaultPeriod
	}

	seriesByTicker, err := h.provider.GetMany(req.Tickers, period)
	if err != nil {
		h.writeError(w, err)
		return
	}

	constituents := make([]portfolio.Constituent, 0, len(req.Tickers))
	for _, ticker := range req.Tickers {
		rs, err := series.Build(seriesByTicker[ticker], series.TimeframeDaily)
		if err != nil {
			h.writeError(w, err)
			return
		}
		constituents = append(constituents, portfolio.Constituent{
			Ticker:  ticker,
			Dates:   rs.Dates,
			Returns: rs.Returns,
		})
	}

	h.compose(w, constituents, req.Weights, freq)
}

type strategyAsset struct {
	Ticker   string `json:"ticker"`
	Strategy string `json:"strategy"`
	Params   struct {
		ShortWindow int     `json:"short_window"`
		LongWindow  int     `json:"long_window"`
		Window      int     `json:"window"`
		Threshold   float64 `json:"threshold"`
	} `json:"params"`
}

type backtestStrategiesRequest struct {
	Assets             []strategyAsset    `json:"assets"`
	Weights            map[string]float64 `json:"weights"`
	RebalanceFrequency string             `json:"rebalance_frequency"`
	Period             string             `json:"period"`
}

// HandleBacktestStrategies handles POST /api/portfolio/backtest-strategies.
// Each constituent is an actively managed sleeve: its return stream is the
// strategy's, not the underlying asset's.
func (h *Handler) HandleBacktestStrategies(w http.ResponseWriter, r *http.Request) {
	var req backtestStrategiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.InvalidParameterError{Detail: "invalid request body"})
		return
	}
	if len(req.Assets) == 0 {
		h.writeError(w, apperr.InvalidParameterError{Detail: "assets must not be empty"})
		return
	}

	freq, err := portfolio.ParseRebalanceFrequency(req.RebalanceFrequency)
	if err != nil {
		h.writeError(w, err)
		return
	}

	period := req.Period
	if period == "" {
		period = h.defaultPeriod
	}

	constituents := make([]portfolio.Constituent, 0, len(req.Assets))
	for _, asset := range req.Assets {
		spec, err := assetSpec(asset)
		if err != nil {
			h.writeError(w, err)
			return
		}

		ps, err := h.provider.GetPriceSeries(asset.Ticker, period)
		if err != nil {
			h.writeError(w, err)
			return
		}

		result, err := h.evaluator.Evaluate(ps, series.TimeframeDaily, spec)
		if err != nil {
			h.writeError(w, err)
			return
		}

		// Strategy returns are aligned to Dates[1:].
		constituents = append(constituents, portfolio.Constituent{
			Ticker:  asset.Ticker,
			Dates:   result.Dates[1:],
			Returns: result.StrategyReturns,
		})
	}

	h.compose(w, constituents, req.Weights, freq)
}

// assetSpec maps a request asset to a strategy spec, falling back to the
// usual defaults for omitted parameters.
func assetSpec(asset strategyAsset) (strategies.Spec, error) {
	kind, err := strategies.ParseKind(asset.Strategy)
	if err != nil {
		return strategies.Spec{}, err
	}

	spec := strategies.Spec{Kind: kind}
	switch kind {
	case strategies.KindSMA:
		spec.SMA = strategies.SMAParams{ShortWindow: 20, LongWindow: 50}
		if asset.Params.ShortWindow > 0 {
			spec.SMA.ShortWindow = asset.Params.ShortWindow
		}
		if asset.Params.LongWindow > 0 {
			spec.SMA.LongWindow = asset.Params.LongWindow
		}
	case strategies.KindMeanReversion:
		spec.MeanReversion = strategies.MeanReversionParams{Window: 20, Threshold: 1.0}
		if asset.Params.Window > 0 {
			spec.MeanReversion.Window = asset.Params.Window
		}
		if asset.Params.Threshold > 0 {
			spec.MeanReversion.Threshold = asset.Params.Threshold
		}
	}
	return spec, nil
}

// compose runs the compositor and writes the shared response shape.
func (h *Handler) compose(
	w http.ResponseWriter,
	constituents []portfolio.Constituent,
	weights map[string]float64,
	freq portfolio.RebalanceFrequency,
) {
	result, err := h.compositor.Compose(constituents, weights, freq, series.TimeframeDaily.PeriodsPerYear())
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows := make([]portfolioRow, len(result.Dates))
	for i, date := range result.Dates {
		rows[i] = portfolioRow{
			Date:                date.Format("2006-01-02"),
			PortfolioCumulative: result.Cumulative[i],
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio_data":    rows,
		"metrics":           result.Metrics.WireMap(),
		"individual_assets": result.Individual,
	})
}

type correlationRequest struct {
	Tickers []string `json:"tickers"`
	Period  string   `json:"period"`
}

// HandleCorrelation handles POST /api/portfolio/correlation
func (h *Handler) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	var req correlationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.InvalidParameterError{Detail: "invalid request body"})
		return
	}

	period := req.Period
	if period == "" {
		period = h.defaultPeriod
	}

	seriesByTicker, err := h.provider.GetMany(req.Tickers, period)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.correlation.Matrix(seriesByTicker, req.Tickers)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// One row per asset, keyed by the other tickers, for table rendering.
	rows := make([]map[string]interface{}, len(result.Tickers))
	for i, ticker := range result.Tickers {
		row := make(map[string]interface{}, len(result.Tickers)+1)
		row["asset"] = ticker
		for j, other := range result.Tickers {
			row[other] = result.Matrix[i][j]
		}
		rows[i] = row
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tickers":            result.Tickers,
		"correlation_matrix": rows,
	})
}

// writeError maps an application error to its HTTP status with a
// `{"detail": ...}` body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	} else {
		h.log.Warn().Err(err).Msg("Request rejected")
	}
	h.writeJSON(w, status, map[string]string{"detail": err.Error()})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
