// Package analytics computes the summary performance metrics exposed by every
// backtest response: total return, annualized volatility, Sharpe ratio and
// maximum drawdown. Values are raw floats; formatting is a presentation
// concern that lives outside the engine.
package analytics

import (
	"math"

	"github.com/aristath/quantdesk/pkg/formulas"
)

// Metrics is the four-value performance contract.
type Metrics struct {
	TotalReturn float64
	Volatility  float64 // annualized
	SharpeRatio float64 // annualized, 0 when return dispersion is 0
	MaxDrawdown float64 // negative fraction (-0.25 = 25% peak-to-trough loss)
}

// Compute derives the metrics from a cumulative growth series.
// periodsPerYear annualizes volatility and Sharpe (252 daily, 52 weekly, 12
// monthly); riskFreeRate is annual and usually 0.
func Compute(cumulative []float64, periodsPerYear int, riskFreeRate float64) Metrics {
	periodReturns := formulas.CalculateReturns(cumulative)

	m := Metrics{
		TotalReturn: formulas.TotalReturn(cumulative),
		Volatility:  formulas.AnnualizedVolatility(periodReturns, periodsPerYear),
		SharpeRatio: formulas.SharpeRatio(periodReturns, riskFreeRate, periodsPerYear),
		MaxDrawdown: formulas.MaxDrawdown(cumulative),
	}

	return m.sanitized()
}

// FromReturns derives the metrics directly from periodic returns by
// compounding them into a growth-of-1 series first.
func FromReturns(returns []float64, periodsPerYear int, riskFreeRate float64) Metrics {
	cumulative := append([]float64{1}, formulas.CumulativeReturns(returns)...)
	return Compute(cumulative, periodsPerYear, riskFreeRate)
}

// sanitized zeroes non-finite values so they never reach JSON encoding.
func (m Metrics) sanitized() Metrics {
	clean := func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	return Metrics{
		TotalReturn: clean(m.TotalReturn),
		Volatility:  clean(m.Volatility),
		SharpeRatio: clean(m.SharpeRatio),
		MaxDrawdown: clean(m.MaxDrawdown),
	}
}

// WireMap returns the metrics keyed the way API responses expose them.
func (m Metrics) WireMap() map[string]float64 {
	return map[string]float64{
		"Total Return": m.TotalReturn,
		"Volatility":   m.Volatility,
		"Sharpe Ratio": m.SharpeRatio,
		"Max Drawdown": m.MaxDrawdown,
	}
}
