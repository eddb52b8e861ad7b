package strategies

import (
	talib "github.com/markcheno/go-talib"
)

// buyHoldSignal is constant Long from the first date forward.
func buyHoldSignal(n int) []int {
	signal := make([]int, n)
	for i := range signal {
		signal[i] = Long
	}
	return signal
}

// smaCrossoverSignal is Long while the short moving average sits strictly
// above the long one. Ties resolve to Flat, and the first longWindow dates are
// Flat by convention (insufficient history).
func smaCrossoverSignal(closes []float64, params SMAParams) []int {
	signal := make([]int, len(closes))
	if len(closes) < params.LongWindow+1 {
		return signal
	}

	smaShort := talib.Sma(closes, params.ShortWindow)
	smaLong := talib.Sma(closes, params.LongWindow)

	for t := params.LongWindow; t < len(closes); t++ {
		if smaShort[t] > smaLong[t] {
			signal[t] = Long
		}
	}
	return signal
}

// meanReversionSignal goes Long when price sits more than threshold standard
// deviations below its rolling mean and exits when it sits more than threshold
// above. Inside the neutral band the position persists; the undefined head of
// the series is Flat.
func meanReversionSignal(closes []float64, params MeanReversionParams) []int {
	signal := make([]int, len(closes))
	if len(closes) < params.Window {
		return signal
	}

	rollingMean := talib.Sma(closes, params.Window)
	rollingStd := talib.StdDev(closes, params.Window, 1.0)

	state := Flat
	for t := range closes {
		if t >= params.Window-1 && rollingStd[t] > 0 {
			z := (closes[t] - rollingMean[t]) / rollingStd[t]
			switch {
			case z < -params.Threshold:
				state = Long
			case z > params.Threshold:
				state = Flat
			}
			// |z| <= threshold: hold the previous state.
		}
		signal[t] = state
	}
	return signal
}
