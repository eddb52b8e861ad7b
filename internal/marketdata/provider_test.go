package marketdata

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantdesk/internal/apperr"
)

// stubSource records fetch calls and serves canned candles per symbol/period.
type stubSource struct {
	mu      sync.Mutex
	calls   []string
	candles map[string][]Candle
	errs    map[string]error
}

func (s *stubSource) GetHistoricalPrices(symbol, period string) ([]Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := symbol + "|" + period
	s.calls = append(s.calls, key)
	if err, ok := s.errs[key]; ok {
		return nil, err
	}
	return s.candles[key], nil
}

func testCandles(n int) []Candle {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]Candle, n)
	for i := range candles {
		candles[i] = Candle{
			Date:  start.AddDate(0, 0, i),
			Close: 100 + float64(i),
		}
	}
	return candles
}

func TestProviderFallbackPeriod(t *testing.T) {
	source := &stubSource{
		candles: map[string][]Candle{"AAPL|max": testCandles(5)},
		errs:    map[string]error{"AAPL|2y": fmt.Errorf("upstream 502")},
	}
	p := NewProvider(source, NewCache(0), "max", zerolog.Nop())

	series, err := p.GetPriceSeries("AAPL", "2y")
	require.NoError(t, err)
	assert.Equal(t, 5, series.Len())
	// Exactly one fallback attempt, no retry loop
	assert.Equal(t, []string{"AAPL|2y", "AAPL|max"}, source.calls)
}

func TestProviderDataSourceUnavailable(t *testing.T) {
	source := &stubSource{
		errs: map[string]error{
			"AAPL|2y":  fmt.Errorf("upstream 502"),
			"AAPL|max": fmt.Errorf("upstream 502"),
		},
	}
	p := NewProvider(source, NewCache(0), "max", zerolog.Nop())

	_, err := p.GetPriceSeries("AAPL", "2y")
	require.Error(t, err)
	assert.Equal(t, 503, apperr.HTTPStatus(err))
}

func TestProviderInvalidTicker(t *testing.T) {
	source := &stubSource{candles: map[string][]Candle{}}
	p := NewProvider(source, NewCache(0), "max", zerolog.Nop())

	_, err := p.GetPriceSeries("NOPE", "max")
	require.Error(t, err)
	assert.Equal(t, 404, apperr.HTTPStatus(err))
}

func TestProviderCaching(t *testing.T) {
	source := &stubSource{candles: map[string][]Candle{"AAPL|1y": testCandles(3)}}
	p := NewProvider(source, NewCache(time.Minute), "max", zerolog.Nop())

	first, err := p.GetPriceSeries("AAPL", "1y")
	require.NoError(t, err)
	second, err := p.GetPriceSeries("AAPL", "1y")
	require.NoError(t, err)

	assert.Equal(t, first.Closes(), second.Closes())
	assert.Len(t, source.calls, 1, "second read must come from cache")
}

func TestProviderGetManyParallel(t *testing.T) {
	source := &stubSource{candles: map[string][]Candle{
		"AAPL|1y": testCandles(3),
		"MSFT|1y": testCandles(4),
		"NVDA|1y": testCandles(5),
	}}
	p := NewProvider(source, NewCache(0), "max", zerolog.Nop())

	results, err := p.GetMany([]string{"AAPL", "MSFT", "NVDA"}, "1y")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 4, results["MSFT"].Len())
}

func TestProviderGetManySingleError(t *testing.T) {
	source := &stubSource{
		candles: map[string][]Candle{"AAPL|1y": testCandles(3)},
		errs: map[string]error{
			"NOPE|1y":  fmt.Errorf("not found"),
			"NOPE|max": fmt.Errorf("not found"),
		},
	}
	p := NewProvider(source, NewCache(0), "max", zerolog.Nop())

	// One bad asset fails the whole request; no partial results
	_, err := p.GetMany([]string{"AAPL", "NOPE"}, "1y")
	require.Error(t, err)
}

func TestCacheExpiration(t *testing.T) {
	cache := NewCache(time.Millisecond)
	cache.Set("AAPL", "1y", &PriceSeries{Ticker: "AAPL", Candles: testCandles(2)})

	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get("AAPL", "1y")
	assert.False(t, ok)
}
