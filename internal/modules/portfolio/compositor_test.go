package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCompositor() *Compositor {
	return NewCompositor(0, zerolog.Nop())
}

func TestParseRebalanceFrequency(t *testing.T) {
	for _, valid := range []string{"", "never", "monthly", "quarterly", "yearly"} {
		_, err := ParseRebalanceFrequency(valid)
		assert.NoError(t, err, valid)
	}

	_, err := ParseRebalanceFrequency("weekly")
	assert.Error(t, err)
}

func TestComposeEqualWeights(t *testing.T) {
	dates := []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 4)}
	constituents := []Constituent{
		{Ticker: "AAA", Dates: dates, Returns: []float64{0.02, -0.01, 0.03}},
		{Ticker: "BBB", Dates: dates, Returns: []float64{0.00, 0.01, -0.01}},
	}

	result, err := testCompositor().Compose(constituents, nil, RebalanceNever, 252)
	require.NoError(t, err)

	require.Len(t, result.Returns, 3)
	// First period is exactly the weighted sum of constituent returns.
	assert.InDelta(t, 0.5*0.02+0.5*0.00, result.Returns[0], 1e-12)

	assert.Len(t, result.Individual["AAA"], 3)
	assert.InDelta(t, 1.02, result.Individual["AAA"][0], 1e-12)
}

func TestComposeCustomWeightsFirstPeriod(t *testing.T) {
	dates := []time.Time{day(2024, 1, 2), day(2024, 1, 3)}
	constituents := []Constituent{
		{Ticker: "AAA", Dates: dates, Returns: []float64{0.04, 0.01}},
		{Ticker: "BBB", Dates: dates, Returns: []float64{-0.02, 0.02}},
	}
	weights := map[string]float64{"AAA": 0.7, "BBB": 0.3}

	result, err := testCompositor().Compose(constituents, weights, RebalanceNever, 252)
	require.NoError(t, err)

	assert.InDelta(t, 0.7*0.04+0.3*-0.02, result.Returns[0], 1e-12)
}

func TestComposeWeightDrift(t *testing.T) {
	// AAA doubles on day one while BBB is flat; without rebalancing AAA
	// should dominate the second period.
	dates := []time.Time{day(2024, 1, 2), day(2024, 1, 3)}
	constituents := []Constituent{
		{Ticker: "AAA", Dates: dates, Returns: []float64{1.0, 0.10}},
		{Ticker: "BBB", Dates: dates, Returns: []float64{0.0, 0.00}},
	}

	result, err := testCompositor().Compose(constituents, nil, RebalanceNever, 252)
	require.NoError(t, err)

	// After day one AAA's weight drifts to 2/3.
	expected := (2.0/3.0)*0.10 + (1.0/3.0)*0.00
	assert.InDelta(t, expected, result.Returns[1], 1e-12)
}

func TestComposeMonthlyRebalanceResetsWeights(t *testing.T) {
	dates := []time.Time{day(2024, 1, 30), day(2024, 1, 31), day(2024, 2, 1)}
	constituents := []Constituent{
		{Ticker: "AAA", Dates: dates, Returns: []float64{1.0, 0.0, 0.10}},
		{Ticker: "BBB", Dates: dates, Returns: []float64{0.0, 0.0, 0.00}},
	}

	drifted, err := testCompositor().Compose(constituents, nil, RebalanceNever, 252)
	require.NoError(t, err)
	rebalanced, err := testCompositor().Compose(constituents, nil, RebalanceMonthly, 252)
	require.NoError(t, err)

	// Drifted weights give AAA 2/3 of the February return; the monthly
	// rebalance snaps back to 50/50 when the month changes.
	assert.InDelta(t, (2.0/3.0)*0.10, drifted.Returns[2], 1e-12)
	assert.InDelta(t, 0.5*0.10, rebalanced.Returns[2], 1e-12)
}

func TestComposeQuarterlyAndYearlyBoundaries(t *testing.T) {
	assert.True(t, rebalanceBoundary(day(2024, 3, 29), day(2024, 4, 1), RebalanceQuarterly))
	assert.False(t, rebalanceBoundary(day(2024, 4, 1), day(2024, 5, 1), RebalanceQuarterly))
	assert.True(t, rebalanceBoundary(day(2024, 12, 31), day(2025, 1, 2), RebalanceYearly))
	assert.False(t, rebalanceBoundary(day(2024, 1, 31), day(2024, 6, 3), RebalanceYearly))
	// Same month one year apart must still trigger a monthly rebalance.
	assert.True(t, rebalanceBoundary(day(2024, 1, 31), day(2025, 1, 31), RebalanceMonthly))
}

func TestComposeRejectsBadWeights(t *testing.T) {
	dates := []time.Time{day(2024, 1, 2), day(2024, 1, 3)}
	constituents := []Constituent{
		{Ticker: "AAA", Dates: dates, Returns: []float64{0.01, 0.01}},
		{Ticker: "BBB", Dates: dates, Returns: []float64{0.01, 0.01}},
	}

	_, err := testCompositor().Compose(constituents, map[string]float64{"AAA": 0.8, "BBB": 0.3}, RebalanceNever, 252)
	assert.Error(t, err, "weights summing to 1.1 must be rejected")

	_, err = testCompositor().Compose(constituents, map[string]float64{"AAA": 1.0}, RebalanceNever, 252)
	assert.Error(t, err, "missing weight must be rejected")

	_, err = testCompositor().Compose(constituents, map[string]float64{"AAA": 1.5, "BBB": -0.5}, RebalanceNever, 252)
	assert.Error(t, err, "negative weight must be rejected")
}

func TestComposeToleratesTinyWeightError(t *testing.T) {
	dates := []time.Time{day(2024, 1, 2), day(2024, 1, 3)}
	constituents := []Constituent{
		{Ticker: "AAA", Dates: dates, Returns: []float64{0.01, 0.01}},
		{Ticker: "BBB", Dates: dates, Returns: []float64{0.01, 0.01}},
	}

	_, err := testCompositor().Compose(constituents, map[string]float64{"AAA": 0.5004, "BBB": 0.5001}, RebalanceNever, 252)
	assert.NoError(t, err)
}

func TestComposeInnerJoin(t *testing.T) {
	constituents := []Constituent{
		{
			Ticker:  "AAA",
			Dates:   []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 4)},
			Returns: []float64{0.01, 0.02, 0.03},
		},
		{
			Ticker:  "BBB",
			Dates:   []time.Time{day(2024, 1, 3), day(2024, 1, 4)},
			Returns: []float64{0.02, 0.01},
		},
	}

	result, err := testCompositor().Compose(constituents, nil, RebalanceNever, 252)
	require.NoError(t, err)

	require.Len(t, result.Dates, 2)
	assert.Equal(t, day(2024, 1, 3), result.Dates[0])
	assert.InDelta(t, 0.5*0.02+0.5*0.02, result.Returns[0], 1e-12)
}

func TestComposeInsufficientOverlap(t *testing.T) {
	constituents := []Constituent{
		{Ticker: "AAA", Dates: []time.Time{day(2024, 1, 2)}, Returns: []float64{0.01}},
		{Ticker: "BBB", Dates: []time.Time{day(2024, 1, 3)}, Returns: []float64{0.01}},
	}

	_, err := testCompositor().Compose(constituents, nil, RebalanceNever, 252)
	assert.Error(t, err)
}
