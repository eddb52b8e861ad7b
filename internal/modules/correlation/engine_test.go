package correlation

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantdesk/internal/marketdata"
)

func seriesFrom(ticker string, start time.Time, closes []float64) *marketdata.PriceSeries {
	candles := make([]marketdata.Candle, len(closes))
	for i, c := range closes {
		candles[i] = marketdata.Candle{Date: start.AddDate(0, 0, i), Close: c}
	}
	return &marketdata.PriceSeries{Ticker: ticker, Candles: candles}
}

func TestMatrixPerfectCorrelation(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	data := map[string]*marketdata.PriceSeries{
		"A": seriesFrom("A", start, []float64{100, 110, 99, 120, 130}),
		"B": seriesFrom("B", start, []float64{50, 55, 49.5, 60, 65}), // 2x of A, identical returns
	}

	engine := NewEngine(zerolog.Nop())
	res, err := engine.Matrix(data, []string{"A", "B"})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Matrix[0][1], 1e-9)
	assert.Equal(t, 1.0, res.Matrix[0][0])
	assert.Equal(t, 1.0, res.Matrix[1][1])
}

func TestMatrixSymmetricUnitDiagonal(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	data := map[string]*marketdata.PriceSeries{
		"A": seriesFrom("A", start, []float64{100, 104, 99, 103, 101, 108}),
		"B": seriesFrom("B", start, []float64{200, 195, 210, 205, 220, 215}),
		"C": seriesFrom("C", start, []float64{10, 10.5, 10.2, 10.9, 10.4, 11.1}),
	}

	engine := NewEngine(zerolog.Nop())
	res, err := engine.Matrix(data, []string{"A", "B", "C"})
	require.NoError(t, err)

	for i := range res.Tickers {
		assert.Equal(t, 1.0, res.Matrix[i][i])
		for j := range res.Tickers {
			assert.InDelta(t, res.Matrix[j][i], res.Matrix[i][j], 1e-12)
			assert.LessOrEqual(t, res.Matrix[i][j], 1.0+1e-9)
			assert.GreaterOrEqual(t, res.Matrix[i][j], -1.0-1e-9)
		}
	}
}

func TestMatrixInnerJoinDropsMissingDates(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	// B is missing A's third date entirely; the join must drop it for both.
	a := seriesFrom("A", start, []float64{100, 110, 99, 120, 130})
	b := &marketdata.PriceSeries{Ticker: "B", Candles: []marketdata.Candle{
		{Date: start, Close: 50},
		{Date: start.AddDate(0, 0, 1), Close: 55},
		{Date: start.AddDate(0, 0, 3), Close: 60},
		{Date: start.AddDate(0, 0, 4), Close: 65},
	}}

	engine := NewEngine(zerolog.Nop())
	res, err := engine.Matrix(map[string]*marketdata.PriceSeries{"A": a, "B": b}, []string{"A", "B"})
	require.NoError(t, err)
	// 4 common dates -> 3 aligned returns; enough for a defined correlation
	assert.InDelta(t, res.Matrix[1][0], res.Matrix[0][1], 1e-12)
}

func TestMatrixInsufficientOverlap(t *testing.T) {
	a := seriesFrom("A", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []float64{100, 110, 120})
	b := seriesFrom("B", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), []float64{50, 55, 60})

	engine := NewEngine(zerolog.Nop())
	_, err := engine.Matrix(map[string]*marketdata.PriceSeries{"A": a, "B": b}, []string{"A", "B"})
	assert.Error(t, err)
}

func TestMatrixRequiresTwoTickers(t *testing.T) {
	a := seriesFrom("A", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []float64{100, 110})
	engine := NewEngine(zerolog.Nop())
	_, err := engine.Matrix(map[string]*marketdata.PriceSeries{"A": a}, []string{"A"})
	assert.Error(t, err)
}
