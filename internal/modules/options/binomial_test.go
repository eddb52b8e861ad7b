package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinomialTreeConvergesToBlackScholes(t *testing.T) {
	c := atmCall()
	analytical := BlackScholes(c).Price

	coarse, err := BinomialTree(c, 50)
	require.NoError(t, err)
	fine, err := BinomialTree(c, 500)
	require.NoError(t, err)

	coarseErr := abs(coarse.Price - analytical)
	fineErr := abs(fine.Price - analytical)

	assert.Less(t, fineErr, coarseErr, "more steps must get closer to the analytical price")
	assert.InDelta(t, analytical, fine.Price, 0.02)
}

func TestBinomialTreeLatticeParameters(t *testing.T) {
	result, err := BinomialTree(atmCall(), 4)
	require.NoError(t, err)

	assert.Greater(t, result.Up, 1.0)
	assert.InDelta(t, 1.0, result.Up*result.Down, 1e-12)
	assert.Greater(t, result.Prob, 0.0)
	assert.Less(t, result.Prob, 1.0)
}

func TestBinomialTreePut(t *testing.T) {
	put := atmCall()
	put.Type = Put

	result, err := BinomialTree(put, 500)
	require.NoError(t, err)
	assert.InDelta(t, BlackScholes(put).Price, result.Price, 0.02)
}

func TestBinomialTreeValidation(t *testing.T) {
	_, err := BinomialTree(atmCall(), 0)
	assert.Error(t, err)

	bad := atmCall()
	bad.Sigma = -0.1
	_, err = BinomialTree(bad, 100)
	assert.Error(t, err)
}

func TestBinomialDeltaMatchesAnalytical(t *testing.T) {
	c := atmCall()
	d, err := BinomialDelta(c, 200)
	require.NoError(t, err)
	assert.InDelta(t, BlackScholes(c).Delta, d, 0.01)

	_, err = BinomialDelta(c, 1)
	assert.Error(t, err)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
