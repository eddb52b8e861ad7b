package formulas

import (
	"math"
)

// SharpeRatio calculates the annualized Sharpe ratio from periodic returns.
//
// Sharpe = (mean(returns) - periodic risk-free rate) / std(returns) * sqrt(periodsPerYear)
//
// riskFreeRate is annual (e.g. 0.02 for 2%); pass 0 for the plain reward-to-variability
// ratio. Returns 0 when there are fewer than two observations or the return series has
// zero dispersion, so a flat series never produces a NaN on the wire.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return 0
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev

	return sharpe * math.Sqrt(float64(periodsPerYear))
}

// TotalReturn calculates the total return of a cumulative growth series,
// relative to its first observation.
func TotalReturn(cumulative []float64) float64 {
	if len(cumulative) == 0 || cumulative[0] == 0 {
		return 0
	}
	return cumulative[len(cumulative)-1]/cumulative[0] - 1
}
