// Package handlers provides HTTP handlers for strategy backtests and the ML
// trend forecast.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/internal/marketdata"
	"github.com/aristath/quantdesk/internal/modules/series"
	"github.com/aristath/quantdesk/internal/modules/strategies"
)

// Default strategy parameters applied when the query string omits them.
const (
	defaultShortWindow   = 20
	defaultLongWindow    = 50
	defaultMRWindow      = 20
	defaultMRThreshold   = 1.0
	defaultForecastSteps = 30
)

// Handler handles backtest and forecast HTTP requests
type Handler struct {
	provider      *marketdata.Provider
	evaluator     *strategies.Evaluator
	defaultPeriod string
	log           zerolog.Logger
}

// NewHandler creates a new backtest handler
func NewHandler(
	provider *marketdata.Provider,
	evaluator *strategies.Evaluator,
	defaultPeriod string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		provider:      provider,
		evaluator:     evaluator,
		defaultPeriod: defaultPeriod,
		log:           log.With().Str("handler", "backtest").Logger(),
	}
}

// backtestRow is one chart point of a backtest response.
type backtestRow struct {
	Date               string  `json:"Date"`
	CumulativeMarket   float64 `json:"Cumulative_Market"`
	CumulativeStrategy float64 `json:"Cumulative_Strategy"`
	Signal             int     `json:"Signal"`
}

// HandleBacktestSMA handles GET /api/backtest/sma/{ticker}
func (h *Handler) HandleBacktestSMA(w http.ResponseWriter, r *http.Request, ticker string) {
	spec := strategies.Spec{
		Kind: strategies.KindSMA,
		SMA: strategies.SMAParams{
			ShortWindow: queryInt(r, "short_window", defaultShortWindow),
			LongWindow:  queryInt(r, "long_window", defaultLongWindow),
		},
	}
	h.runBacktest(w, r, ticker, spec)
}

// HandleBacktestMeanReversion handles GET /api/backtest/mean-reversion/{ticker}
func (h *Handler) HandleBacktestMeanReversion(w http.ResponseWriter, r *http.Request, ticker string) {
	spec := strategies.Spec{
		Kind: strategies.KindMeanReversion,
		MeanReversion: strategies.MeanReversionParams{
			Window:    queryInt(r, "window", defaultMRWindow),
			Threshold: queryFloat(r, "threshold", defaultMRThreshold),
		},
	}
	h.runBacktest(w, r, ticker, spec)
}

// HandleBacktestML handles GET /api/backtest/ml/{ticker}
func (h *Handler) HandleBacktestML(w http.ResponseWriter, r *http.Request, ticker string) {
	h.runBacktest(w, r, ticker, strategies.Spec{Kind: strategies.KindMLTrend})
}

func (h *Handler) runBacktest(w http.ResponseWriter, r *http.Request, ticker string, spec strategies.Spec) {
	period := queryString(r, "period", h.defaultPeriod)
	tf, err := series.ParseTimeframe(queryString(r, "timeframe", ""))
	if err != nil {
		h.writeError(w, err)
		return
	}

	ps, err := h.provider.GetPriceSeries(ticker, period)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.evaluator.Evaluate(ps, tf, spec)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows := make([]backtestRow, len(result.Dates))
	for i, date := range result.Dates {
		rows[i] = backtestRow{
			Date:               date.Format("2006-01-02"),
			CumulativeMarket:   result.CumulativeMarket[i],
			CumulativeStrategy: result.CumulativeStrategy[i],
			Signal:             result.Signal[i],
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":    rows,
		"metrics": result.Metrics.WireMap(),
	})
}

// forecastRow is one projected point, expressed as growth ratios relative to
// the last observed value.
type forecastRow struct {
	Date          string  `json:"Date"`
	ForecastRatio float64 `json:"Forecast_Ratio"`
	LowerRatio    float64 `json:"Lower_Ratio"`
	UpperRatio    float64 `json:"Upper_Ratio"`
}

// HandleForecastML handles GET /api/forecast/ml/{ticker}
func (h *Handler) HandleForecastML(w http.ResponseWriter, r *http.Request, ticker string) {
	period := queryString(r, "period", h.defaultPeriod)
	horizon := queryInt(r, "horizon", defaultForecastSteps)

	ps, err := h.provider.GetPriceSeries(ticker, period)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Forecast the passive cumulative series.
	result, err := h.evaluator.Evaluate(ps, series.TimeframeDaily, strategies.Spec{Kind: strategies.KindBuyHold})
	if err != nil {
		h.writeError(w, err)
		return
	}

	forecast, err := h.evaluator.Forecast(result.CumulativeMarket, horizon)
	if err != nil {
		h.writeError(w, err)
		return
	}

	lastDate := result.Dates[len(result.Dates)-1]
	rows := make([]forecastRow, horizon)
	date := lastDate
	for i := 0; i < horizon; i++ {
		date = nextBusinessDay(date)
		rows[i] = forecastRow{
			Date:          date.Format("2006-01-02"),
			ForecastRatio: forecast.Mean[i],
			LowerRatio:    forecast.Lower[i],
			UpperRatio:    forecast.Upper[i],
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"forecast": rows})
}

// nextBusinessDay steps one day forward, skipping weekends.
func nextBusinessDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func queryString(r *http.Request, name, fallback string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return fallback
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryFloat(r *http.Request, name string, fallback float64) float64 {
	if v := r.URL.Query().Get(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
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
