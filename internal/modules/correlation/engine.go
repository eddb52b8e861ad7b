// Package correlation computes pairwise return correlation across assets.
package correlation

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/internal/marketdata"
	"github.com/aristath/quantdesk/pkg/formulas"
)

// Result is a symmetric Pearson correlation matrix with unit diagonal, row and
// column order given by Tickers.
type Result struct {
	Tickers []string
	Matrix  [][]float64
}

// Engine computes correlation matrices.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a correlation engine
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "correlation").Logger()}
}

const dateKeyLayout = "2006-01-02"

// alignCloses inner-joins the price series on dates present in every asset and
// returns the aligned close columns in common-date order.
func alignCloses(seriesByTicker map[string]*marketdata.PriceSeries, tickers []string) map[string][]float64 {
	counts := make(map[string]int)
	for _, ticker := range tickers {
		seen := make(map[string]bool)
		for _, c := range seriesByTicker[ticker].Candles {
			key := c.Date.Format(dateKeyLayout)
			if !seen[key] {
				seen[key] = true
				counts[key]++
			}
		}
	}

	var common []string
	for key, n := range counts {
		if n == len(tickers) {
			common = append(common, key)
		}
	}
	sort.Strings(common)

	index := make(map[string]int, len(common))
	for i, key := range common {
		index[key] = i
	}

	aligned := make(map[string][]float64, len(tickers))
	for _, ticker := range tickers {
		col := make([]float64, len(common))
		for _, c := range seriesByTicker[ticker].Candles {
			if i, ok := index[c.Date.Format(dateKeyLayout)]; ok {
				col[i] = c.Close
			}
		}
		aligned[ticker] = col
	}
	return aligned
}

// Matrix computes the pairwise Pearson correlation of simple returns over the
// common date range. Fails with InsufficientData when the inner join leaves
// fewer than 3 common dates (2 overlapping returns).
func (e *Engine) Matrix(seriesByTicker map[string]*marketdata.PriceSeries, tickers []string) (*Result, error) {
	if len(tickers) < 2 {
		return nil, apperr.InvalidParameterError{Detail: "correlation needs at least 2 tickers"}
	}
	for _, ticker := range tickers {
		if _, ok := seriesByTicker[ticker]; !ok {
			return nil, apperr.InvalidTickerError{Ticker: ticker}
		}
	}

	aligned := alignCloses(seriesByTicker, tickers)
	nDates := len(aligned[tickers[0]])
	if nDates < 3 {
		return nil, apperr.InsufficientDataError{
			Detail: fmt.Sprintf("only %d dates shared by all assets, need at least 3", nDates),
		}
	}

	nReturns := nDates - 1
	samples := mat.NewDense(nReturns, len(tickers), nil)
	for j, ticker := range tickers {
		returns := formulas.CalculateReturns(aligned[ticker])
		for i, r := range returns {
			samples.Set(i, j, r)
		}
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, samples, nil)

	matrix := make([][]float64, len(tickers))
	for i := range tickers {
		matrix[i] = make([]float64, len(tickers))
		for j := range tickers {
			v := corr.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				// A zero-variance column (flat prices) has no defined
				// correlation; report 0 rather than NaN on the wire.
				v = 0
			}
			matrix[i][j] = v
		}
		matrix[i][i] = 1.0
	}

	e.log.Debug().
		Int("assets", len(tickers)).
		Int("common_dates", nDates).
		Msg("Computed correlation matrix")

	return &Result{Tickers: tickers, Matrix: matrix}, nil
}
