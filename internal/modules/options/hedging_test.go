package options

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSimulator() *Simulator {
	return NewSimulator(4, zerolog.Nop())
}

func TestHedgingParamsValidate(t *testing.T) {
	ok := HedgingParams{Contract: atmCall(), Steps: 52, Paths: 100}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name   string
		params HedgingParams
	}{
		{"no steps", HedgingParams{Contract: atmCall(), Steps: 0, Paths: 100}},
		{"no paths", HedgingParams{Contract: atmCall(), Steps: 52, Paths: 0}},
		{"too many steps", HedgingParams{Contract: atmCall(), Steps: 5000, Paths: 100}},
		{"too many paths", HedgingParams{Contract: atmCall(), Steps: 52, Paths: 200000}},
		{"bad contract", HedgingParams{Contract: Contract{}, Steps: 52, Paths: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.params.Validate())
		})
	}
}

func TestHedgingResultShape(t *testing.T) {
	result, err := testSimulator().Run(HedgingParams{
		Contract: atmCall(), Steps: 12, Paths: 80, Seed: 7,
	})
	require.NoError(t, err)

	assert.InDelta(t, BlackScholes(atmCall()).Price, result.InitialPrice, 1e-10)
	assert.Len(t, result.HedgingErrors, 80)
	assert.Len(t, result.Paths, maxDisplayPaths)
	assert.Len(t, result.PortfolioValues, maxDisplayPaths)
	require.Len(t, result.TimeSteps, 13)
	assert.Equal(t, 0.0, result.TimeSteps[0])
	assert.InDelta(t, 1.0, result.TimeSteps[12], 1e-12)

	for _, path := range result.Paths {
		require.Len(t, path, 13)
		assert.Equal(t, 100.0, path[0])
		for _, s := range path {
			assert.Greater(t, s, 0.0)
		}
	}
}

func TestHedgingSmallPathCount(t *testing.T) {
	result, err := testSimulator().Run(HedgingParams{
		Contract: atmCall(), Steps: 12, Paths: 3, Seed: 1,
	})
	require.NoError(t, err)
	assert.Len(t, result.Paths, 3)
	assert.Len(t, result.HedgingErrors, 3)
}

func TestHedgingDeterministicWithSeed(t *testing.T) {
	params := HedgingParams{Contract: atmCall(), Steps: 12, Paths: 40, Seed: 42}

	a, err := testSimulator().Run(params)
	require.NoError(t, err)
	b, err := testSimulator().Run(params)
	require.NoError(t, err)

	assert.Equal(t, a.MeanError, b.MeanError)
	assert.Equal(t, a.StdError, b.StdError)
	assert.Equal(t, a.Paths[0], b.Paths[0])
}

func TestHedgingErrorShrinksWithRebalanceFrequency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence test in short mode")
	}

	var previous float64
	for i, steps := range []int{12, 52, 252} {
		result, err := testSimulator().Run(HedgingParams{
			Contract: atmCall(), Steps: steps, Paths: 4000, Seed: 99,
		})
		require.NoError(t, err)

		assert.InDelta(t, 0.0, result.MeanError, 0.5)
		if i > 0 {
			assert.Less(t, result.StdError, previous,
				"finer rebalancing must reduce hedging variance")
		}
		previous = result.StdError
	}
}

func TestHedgingVaRIsLowTailOfErrors(t *testing.T) {
	result, err := testSimulator().Run(HedgingParams{
		Contract: atmCall(), Steps: 52, Paths: 500, Seed: 5,
	})
	require.NoError(t, err)

	below := 0
	for _, e := range result.HedgingErrors {
		if e <= result.VaR95 {
			below++
		}
	}
	ratio := float64(below) / float64(len(result.HedgingErrors))
	assert.InDelta(t, 0.05, ratio, 0.01)
	assert.Less(t, result.VaR95, result.MeanError)
}

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2, 5}
	assert.Equal(t, 1.0, percentile(values, 0))
	assert.Equal(t, 5.0, percentile(values, 100))
	assert.Equal(t, 3.0, percentile(values, 50))
	assert.InDelta(t, 1.2, percentile(values, 5), 1e-12)
}
