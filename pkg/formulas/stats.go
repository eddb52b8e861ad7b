// Package formulas provides the shared financial math primitives used across the
// analytics engine: return conversion, volatility, Sharpe ratio and drawdown.
// All functions are pure and operate on plain float64 slices.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// CalculateReturns converts prices to simple period-over-period returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]. Zero-priced observations
// produce a zero return rather than an Inf.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// CumulativeReturns compounds simple returns into a growth-of-1 series.
// Result[i] = prod over j<=i of (1 + returns[j]).
func CumulativeReturns(returns []float64) []float64 {
	cumulative := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		cumulative[i] = acc
	}
	return cumulative
}

// AnnualizedVolatility calculates annualized volatility from periodic returns.
// periodsPerYear is 252 for daily data, 52 for weekly, 12 for monthly.
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}
	return StdDev(returns) * math.Sqrt(float64(periodsPerYear))
}

