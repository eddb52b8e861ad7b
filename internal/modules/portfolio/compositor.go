// Package portfolio combines per-asset return series into one weighted,
// optionally rebalanced portfolio series.
package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/internal/modules/analytics"
	"github.com/aristath/quantdesk/pkg/formulas"
)

// RebalanceFrequency controls when drifted weights snap back to target.
type RebalanceFrequency string

const (
	RebalanceNever     RebalanceFrequency = "never"
	RebalanceMonthly   RebalanceFrequency = "monthly"
	RebalanceQuarterly RebalanceFrequency = "quarterly"
	RebalanceYearly    RebalanceFrequency = "yearly"
)

// ParseRebalanceFrequency validates a caller-supplied frequency. The empty
// string means never.
func ParseRebalanceFrequency(s string) (RebalanceFrequency, error) {
	switch RebalanceFrequency(s) {
	case "", RebalanceNever:
		return RebalanceNever, nil
	case RebalanceMonthly, RebalanceQuarterly, RebalanceYearly:
		return RebalanceFrequency(s), nil
	default:
		return "", apperr.InvalidParameterError{
			Detail: fmt.Sprintf("unknown rebalance frequency %q", s),
		}
	}
}

// weightTolerance is how far custom weights may drift from summing to 1
// before the request is rejected (0.1 percentage points).
const weightTolerance = 1e-3

// Constituent is one asset's periodic return series, date-aligned to its own
// observations. The compositor inner-joins constituents before combining.
type Constituent struct {
	Ticker  string
	Dates   []time.Time
	Returns []float64
}

// Result is the combined portfolio series plus each constituent's own
// cumulative series over the common dates (overlay display only; the
// individual series are not re-combined into the portfolio number).
type Result struct {
	Dates      []time.Time
	Returns    []float64
	Cumulative []float64
	Individual map[string][]float64
	Metrics    analytics.Metrics
}

// Compositor combines constituent return series.
type Compositor struct {
	riskFreeRate float64
	log          zerolog.Logger
}

// NewCompositor creates a compositor
func NewCompositor(riskFreeRate float64, log zerolog.Logger) *Compositor {
	return &Compositor{
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("component", "portfolio").Logger(),
	}
}

// targetWeights validates custom weights or builds equal weights. Custom
// weights must cover the requested tickers and sum to 1 within tolerance;
// anything else is rejected rather than silently normalized.
func targetWeights(tickers []string, custom map[string]float64) ([]float64, error) {
	weights := make([]float64, len(tickers))

	if custom == nil {
		for i := range weights {
			weights[i] = 1.0 / float64(len(tickers))
		}
		return weights, nil
	}

	sum := 0.0
	for i, ticker := range tickers {
		w, ok := custom[ticker]
		if !ok {
			return nil, apperr.InvalidParameterError{
				Detail: fmt.Sprintf("missing weight for %s", ticker),
			}
		}
		if w < 0 {
			return nil, apperr.InvalidParameterError{
				Detail: fmt.Sprintf("weight for %s must not be negative", ticker),
			}
		}
		weights[i] = w
		sum += w
	}

	if math.Abs(sum-1) > weightTolerance {
		return nil, apperr.InvalidParameterError{
			Detail: fmt.Sprintf("weights sum to %.4f, must sum to 1", sum),
		}
	}

	// Inside tolerance, scale to an exact sum of 1 so drift math starts clean.
	for i := range weights {
		weights[i] /= sum
	}
	return weights, nil
}

// align inner-joins constituents on their return dates.
func align(constituents []Constituent) ([]time.Time, [][]float64) {
	counts := make(map[string]int)
	byKey := make([]map[string]float64, len(constituents))
	for i, c := range constituents {
		byKey[i] = make(map[string]float64, len(c.Dates))
		for j, d := range c.Dates {
			key := d.Format("2006-01-02")
			if _, seen := byKey[i][key]; !seen {
				counts[key]++
			}
			byKey[i][key] = c.Returns[j]
		}
	}

	var keys []string
	for key, n := range counts {
		if n == len(constituents) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	dates := make([]time.Time, len(keys))
	columns := make([][]float64, len(constituents))
	for i := range columns {
		columns[i] = make([]float64, len(keys))
	}
	for j, key := range keys {
		dates[j], _ = time.Parse("2006-01-02", key)
		for i := range constituents {
			columns[i][j] = byKey[i][key]
		}
	}
	return dates, columns
}

// rebalanceBoundary reports whether the step from prev to cur crosses a
// rebalance boundary, evaluated by date-component change.
func rebalanceBoundary(prev, cur time.Time, freq RebalanceFrequency) bool {
	switch freq {
	case RebalanceMonthly:
		return cur.Month() != prev.Month() || cur.Year() != prev.Year()
	case RebalanceQuarterly:
		return quarterOf(cur) != quarterOf(prev) || cur.Year() != prev.Year()
	case RebalanceYearly:
		return cur.Year() != prev.Year()
	default:
		return false
	}
}

func quarterOf(t time.Time) int {
	return (int(t.Month()) - 1) / 3
}

// Compose combines the constituents under the given weights and rebalancing
// schedule. Weights drift with relative performance between boundaries: after
// each period the weight vector is recomputed from the prior weights and
// prior-period returns, never mutated in place across requests.
func (c *Compositor) Compose(
	constituents []Constituent,
	customWeights map[string]float64,
	freq RebalanceFrequency,
	periodsPerYear int,
) (*Result, error) {
	if len(constituents) == 0 {
		return nil, apperr.InvalidParameterError{Detail: "portfolio needs at least 1 asset"}
	}

	tickers := make([]string, len(constituents))
	for i, con := range constituents {
		tickers[i] = con.Ticker
	}

	target, err := targetWeights(tickers, customWeights)
	if err != nil {
		return nil, err
	}

	dates, columns := align(constituents)
	if len(dates) < 2 {
		return nil, apperr.InsufficientDataError{
			Detail: fmt.Sprintf("only %d dates shared by all assets, need at least 2", len(dates)),
		}
	}

	current := make([]float64, len(target))
	copy(current, target)

	portfolioReturns := make([]float64, len(dates))
	for j := range dates {
		if j > 0 && rebalanceBoundary(dates[j-1], dates[j], freq) {
			copy(current, target)
		}

		periodReturn := 0.0
		for i := range constituents {
			periodReturn += current[i] * columns[i][j]
		}
		portfolioReturns[j] = periodReturn

		// Drift: each weight grows with its own return relative to the
		// portfolio's.
		if periodReturn != -1 {
			for i := range current {
				current[i] = current[i] * (1 + columns[i][j]) / (1 + periodReturn)
			}
		}
	}

	cumulative := formulas.CumulativeReturns(portfolioReturns)

	individual := make(map[string][]float64, len(constituents))
	for i, con := range constituents {
		individual[con.Ticker] = formulas.CumulativeReturns(columns[i])
	}

	c.log.Debug().
		Int("assets", len(constituents)).
		Int("periods", len(dates)).
		Str("rebalance", string(freq)).
		Msg("Composed portfolio")

	return &Result{
		Dates:      dates,
		Returns:    portfolioReturns,
		Cumulative: cumulative,
		Individual: individual,
		Metrics:    analytics.FromReturns(portfolioReturns, periodsPerYear, c.riskFreeRate),
	}, nil
}
