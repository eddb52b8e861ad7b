package strategies

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/pkg/formulas"
)

// trainFraction is the leading share of the series the classifier is fit on.
// The observed product behavior bakes in a 70/30 split; kept as a constant
// rather than a request knob until a caller actually needs to vary it.
const trainFraction = 0.70

// featureWindow is the number of trailing returns handed to the classifier as
// the prediction feature vector.
const featureWindow = 21

// minMLObservations is the smallest series the hybrid strategy accepts. The
// train split must hand the default classifier at least its largest lookback
// plus one return, so the floor is the smallest n with int(0.7*n) >= 22.
const minMLObservations = 32

// Direction is a classifier verdict.
type Direction int

const (
	DirectionDown Direction = iota
	DirectionUp
)

// Classifier is the injected ML capability. Train receives the returns of the
// leading train span; Predict receives a trailing window of returns and calls
// the next period's direction. The training algorithm itself is a black box to
// the engine.
type Classifier interface {
	Train(trainReturns []float64) error
	Predict(window []float64) Direction
}

// Forecast projects a cumulative series horizon steps forward through the
// injected forecaster.
func (e *Evaluator) Forecast(cumulative []float64, horizon int) (*ForecastResult, error) {
	return e.forecaster.Forecast(cumulative, horizon)
}

// mlTrendSignal composes the hybrid signal: Buy & Hold over the train span
// (the model must not trade data it was fit on), classifier-driven over the
// test span. The returned cumulative-strategy series therefore equals the
// market series up to the split and only diverges after it.
func (e *Evaluator) mlTrendSignal(closes, returns []float64) ([]int, error) {
	n := len(closes)
	if n < minMLObservations {
		return nil, apperr.InsufficientDataError{
			Detail: fmt.Sprintf("ML strategy needs at least %d observations, got %d", minMLObservations, n),
		}
	}

	split := int(trainFraction * float64(n))

	clf := e.newClassifier()
	if err := clf.Train(returns[:split]); err != nil {
		return nil, apperr.InternalComputationError{Detail: fmt.Sprintf("classifier training failed: %v", err)}
	}

	signal := make([]int, n)
	for t := 0; t < split; t++ {
		signal[t] = Long
	}
	for t := split; t < n; t++ {
		// Returns observable at date t end at index t-1.
		lo := t - featureWindow
		if lo < 0 {
			lo = 0
		}
		if clf.Predict(returns[lo:t]) == DirectionUp {
			signal[t] = Long
		}
	}
	return signal, nil
}

// MomentumClassifier is the default trend capability: it votes on the sign of
// the trailing mean return, picking its lookback during training by
// directional hit rate.
type MomentumClassifier struct {
	lookback int
}

var momentumLookbacks = []int{5, 10, 21}

// NewMomentumClassifier creates the classifier with the middle lookback as a
// starting point; Train replaces it.
func NewMomentumClassifier() *MomentumClassifier {
	return &MomentumClassifier{lookback: 10}
}

// Train selects the lookback with the best one-step directional accuracy over
// the training returns.
func (c *MomentumClassifier) Train(trainReturns []float64) error {
	if len(trainReturns) < momentumLookbacks[len(momentumLookbacks)-1]+1 {
		return fmt.Errorf("training span too short: %d returns", len(trainReturns))
	}

	bestHitRate := -1.0
	for _, k := range momentumLookbacks {
		hits, total := 0, 0
		for t := k; t < len(trainReturns); t++ {
			predictedUp := formulas.Mean(trainReturns[t-k:t]) >= 0
			actualUp := trainReturns[t] >= 0
			if predictedUp == actualUp {
				hits++
			}
			total++
		}
		if total == 0 {
			continue
		}
		hitRate := float64(hits) / float64(total)
		if hitRate > bestHitRate {
			bestHitRate = hitRate
			c.lookback = k
		}
	}
	return nil
}

// Predict votes on the sign of the mean of the last lookback returns.
func (c *MomentumClassifier) Predict(window []float64) Direction {
	if len(window) == 0 {
		return DirectionUp
	}
	lo := len(window) - c.lookback
	if lo < 0 {
		lo = 0
	}
	if formulas.Mean(window[lo:]) >= 0 {
		return DirectionUp
	}
	return DirectionDown
}

// ForecastResult holds projected growth ratios relative to the last known
// cumulative value, one per horizon step, with lower/upper confidence bounds.
type ForecastResult struct {
	Mean  []float64
	Lower []float64
	Upper []float64
}

// Forecaster is the injected projection capability. It is called once per
// request and its output is passed through without re-validation.
type Forecaster interface {
	Forecast(cumulative []float64, horizon int) (*ForecastResult, error)
}

// TrendForecaster is the default capability: a linear trend fit on the log of
// the trailing cumulative series, projected forward with widening normal
// confidence bounds.
type TrendForecaster struct {
	window     int     // trailing observations used for the fit
	confidence float64 // z-value for the bounds
}

// NewTrendForecaster creates a forecaster fitting the last quarter of trading
// days with 95% bounds.
func NewTrendForecaster() *TrendForecaster {
	return &TrendForecaster{window: 63, confidence: 1.96}
}

// Forecast projects horizon steps beyond the end of the cumulative series.
func (f *TrendForecaster) Forecast(cumulative []float64, horizon int) (*ForecastResult, error) {
	if horizon < 1 {
		return nil, apperr.InvalidParameterError{Detail: "forecast horizon must be at least 1"}
	}
	if len(cumulative) < 10 {
		return nil, apperr.InsufficientDataError{
			Detail: fmt.Sprintf("forecast needs at least 10 observations, got %d", len(cumulative)),
		}
	}

	w := f.window
	if w > len(cumulative) {
		w = len(cumulative)
	}
	tail := cumulative[len(cumulative)-w:]

	xs := make([]float64, w)
	ys := make([]float64, w)
	for i, v := range tail {
		if v <= 0 {
			return nil, apperr.InternalComputationError{Detail: "cumulative series must stay positive to fit a log trend"}
		}
		xs[i] = float64(i)
		ys[i] = math.Log(v)
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	// Residual standard error of the fit.
	var sse float64
	for i := range xs {
		resid := ys[i] - (alpha + beta*xs[i])
		sse += resid * resid
	}
	se := 0.0
	if w > 2 {
		se = math.Sqrt(sse / float64(w-2))
	}

	last := tail[w-1]
	result := &ForecastResult{
		Mean:  make([]float64, horizon),
		Lower: make([]float64, horizon),
		Upper: make([]float64, horizon),
	}
	for h := 1; h <= horizon; h++ {
		pred := alpha + beta*float64(w-1+h)
		spread := f.confidence * se * math.Sqrt(float64(h))
		result.Mean[h-1] = math.Exp(pred) / last
		result.Lower[h-1] = math.Exp(pred-spread) / last
		result.Upper[h-1] = math.Exp(pred+spread) / last
	}
	return result, nil
}
