package formulas

// MaxDrawdown calculates the maximum peak-to-trough decline of a cumulative
// growth series.
//
// Drawdown Formula:
//
//	Drawdown[t] = cumulative[t] / max(cumulative[0..t]) - 1
//	Max Drawdown = minimum of all drawdowns
//
// The result is zero or negative (-0.25 = 25% loss from peak).
func MaxDrawdown(cumulative []float64) float64 {
	if len(cumulative) < 2 {
		return 0
	}

	peaks := RunningMax(cumulative)

	maxDrawdown := 0.0
	for i, v := range cumulative {
		if peaks[i] <= 0 {
			continue
		}
		if drawdown := v/peaks[i] - 1; drawdown < maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// RunningMax returns the running maximum of a series, index-aligned with the input.
func RunningMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	peak := values[0]
	for i, v := range values {
		if v > peak {
			peak = v
		}
		out[i] = peak
	}
	return out
}
