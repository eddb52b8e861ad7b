// Package strategies produces position signals and backtest results for a
// single asset. Strategies are a tagged variant (buy & hold, SMA crossover,
// mean reversion, ML trend) dispatched through one Evaluate call so the
// portfolio compositor can treat them interchangeably.
package strategies

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/internal/marketdata"
	"github.com/aristath/quantdesk/internal/modules/analytics"
	"github.com/aristath/quantdesk/internal/modules/series"
	"github.com/aristath/quantdesk/pkg/formulas"
)

// Kind names a strategy variant.
type Kind string

const (
	KindBuyHold       Kind = "buy_hold"
	KindSMA           Kind = "sma"
	KindMeanReversion Kind = "mean_reversion"
	KindMLTrend       Kind = "ml"
)

// Position states. Long-only: no shorting, no leverage.
const (
	Flat = 0
	Long = 1
)

// SMAParams parameterizes the SMA crossover strategy.
type SMAParams struct {
	ShortWindow int `json:"short_window"`
	LongWindow  int `json:"long_window"`
}

// MeanReversionParams parameterizes the z-score mean reversion strategy.
type MeanReversionParams struct {
	Window    int     `json:"window"`
	Threshold float64 `json:"threshold"`
}

// Spec selects a strategy variant and carries its parameters.
type Spec struct {
	Kind          Kind
	SMA           SMAParams
	MeanReversion MeanReversionParams
}

// ParseKind validates a caller-supplied strategy name.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindBuyHold, KindSMA, KindMeanReversion, KindMLTrend:
		return Kind(name), nil
	default:
		return "", apperr.InvalidParameterError{Detail: fmt.Sprintf("unknown strategy %q", name)}
	}
}

// Validate checks the parameters of the selected variant.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindSMA:
		if s.SMA.ShortWindow < 1 || s.SMA.LongWindow < 1 {
			return apperr.InvalidParameterError{Detail: "SMA windows must be positive"}
		}
		if s.SMA.ShortWindow >= s.SMA.LongWindow {
			return apperr.InvalidParameterError{
				Detail: fmt.Sprintf("short_window (%d) must be smaller than long_window (%d)",
					s.SMA.ShortWindow, s.SMA.LongWindow),
			}
		}
	case KindMeanReversion:
		if s.MeanReversion.Window < 2 {
			return apperr.InvalidParameterError{Detail: "mean reversion window must be at least 2"}
		}
		if s.MeanReversion.Threshold <= 0 {
			return apperr.InvalidParameterError{Detail: "mean reversion threshold must be positive"}
		}
	case KindBuyHold, KindMLTrend:
		// No parameters.
	default:
		return apperr.InvalidParameterError{Detail: fmt.Sprintf("unknown strategy %q", string(s.Kind))}
	}
	return nil
}

// Result is the backtest output for one asset. All series share the same date
// index and both cumulative series start at 1.0 on the first date.
type Result struct {
	Dates              []time.Time
	Signal             []int
	CumulativeMarket   []float64
	CumulativeStrategy []float64
	StrategyReturns    []float64 // periodic, aligned to Dates[1:]
	Metrics            analytics.Metrics
}

// Evaluator runs strategy backtests. The ML classifier and forecaster are
// injected capabilities so the hybrid-blend logic is testable with stubs.
type Evaluator struct {
	newClassifier func() Classifier
	forecaster    Forecaster
	riskFreeRate  float64
	log           zerolog.Logger
}

// NewEvaluator creates an evaluator with the default trend classifier and
// forecaster.
func NewEvaluator(riskFreeRate float64, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		newClassifier: func() Classifier { return NewMomentumClassifier() },
		forecaster:    NewTrendForecaster(),
		riskFreeRate:  riskFreeRate,
		log:           log.With().Str("component", "strategies").Logger(),
	}
}

// SetClassifierFactory swaps the ML capability (used by tests).
func (e *Evaluator) SetClassifierFactory(factory func() Classifier) {
	e.newClassifier = factory
}

// SetForecaster swaps the forecasting capability (used by tests).
func (e *Evaluator) SetForecaster(f Forecaster) {
	e.forecaster = f
}

// Evaluate resamples the price series to the requested timeframe, computes the
// variant's position signal and composes the strategy return series.
//
// The signal at each date is the state observable at that date's close; the
// causal lag lives in the return rule: strategyReturn[t] = signal[t-1] *
// marketReturn[t], so today's return never feeds today's position.
func (e *Evaluator) Evaluate(ps *marketdata.PriceSeries, tf series.Timeframe, spec Spec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	resampled := series.Resample(ps, tf)
	rs, err := series.Build(resampled, series.TimeframeDaily)
	if err != nil {
		return nil, err
	}

	closes := resampled.Closes()
	signal, err := e.computeSignal(closes, rs.Returns, spec)
	if err != nil {
		return nil, err
	}

	// marketReturn[i] covers closes[i] -> closes[i+1]; the position holding it
	// is the one decided at closes[i].
	strategyReturns := make([]float64, len(rs.Returns))
	for i, r := range rs.Returns {
		strategyReturns[i] = float64(signal[i]) * r
	}

	cumulativeMarket := append([]float64{1}, formulas.CumulativeReturns(rs.Returns)...)
	cumulativeStrategy := append([]float64{1}, formulas.CumulativeReturns(strategyReturns)...)

	for _, v := range cumulativeStrategy {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperr.InternalComputationError{Detail: "non-finite value in cumulative strategy series"}
		}
	}

	return &Result{
		Dates:              resampled.Dates(),
		Signal:             signal,
		CumulativeMarket:   cumulativeMarket,
		CumulativeStrategy: cumulativeStrategy,
		StrategyReturns:    strategyReturns,
		Metrics:            analytics.Compute(cumulativeStrategy, tf.PeriodsPerYear(), e.riskFreeRate),
	}, nil
}

func (e *Evaluator) computeSignal(closes, returns []float64, spec Spec) ([]int, error) {
	switch spec.Kind {
	case KindBuyHold:
		return buyHoldSignal(len(closes)), nil
	case KindSMA:
		return smaCrossoverSignal(closes, spec.SMA), nil
	case KindMeanReversion:
		return meanReversionSignal(closes, spec.MeanReversion), nil
	case KindMLTrend:
		return e.mlTrendSignal(closes, returns)
	default:
		return nil, apperr.InvalidParameterError{Detail: fmt.Sprintf("unknown strategy %q", string(spec.Kind))}
	}
}
