package marketdata

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/quantdesk/internal/apperr"
)

// Provider resolves tickers to price series, adding caching and the one-shot
// fallback fetch on top of a HistoricalSource.
type Provider struct {
	source         HistoricalSource
	cache          *Cache
	fallbackPeriod string
	log            zerolog.Logger
}

// NewProvider creates a provider. fallbackPeriod is the broadest period the
// source supports (typically "max"); it is tried exactly once when the
// requested period fails.
func NewProvider(source HistoricalSource, cache *Cache, fallbackPeriod string, log zerolog.Logger) *Provider {
	return &Provider{
		source:         source,
		cache:          cache,
		fallbackPeriod: fallbackPeriod,
		log:            log.With().Str("component", "marketdata").Logger(),
	}
}

// GetPriceSeries fetches the price history for one ticker. A fetch failure for
// the requested period triggers a single fallback attempt at the broadest
// period before the request fails with DataSourceUnavailable. An empty result
// means the symbol does not resolve and maps to InvalidTicker.
func (p *Provider) GetPriceSeries(ticker, period string) (*PriceSeries, error) {
	if cached, ok := p.cache.Get(ticker, period); ok {
		return cached, nil
	}

	candles, err := p.source.GetHistoricalPrices(ticker, period)
	if err != nil && period != p.fallbackPeriod {
		p.log.Warn().Err(err).
			Str("ticker", ticker).
			Str("period", period).
			Str("fallback", p.fallbackPeriod).
			Msg("Fetch failed, retrying at fallback period")
		candles, err = p.source.GetHistoricalPrices(ticker, p.fallbackPeriod)
	}
	if err != nil {
		return nil, apperr.DataSourceUnavailableError{Ticker: ticker, Err: err}
	}

	if len(candles) == 0 {
		return nil, apperr.InvalidTickerError{Ticker: ticker}
	}

	series := &PriceSeries{Ticker: ticker, Candles: candles}
	p.cache.Set(ticker, period, series)
	return series, nil
}

// GetMany fetches price series for several tickers in parallel. Assets are
// independent until the final date join, so each gets its own goroutine. The
// whole request fails on the first asset error; callers never see a partial
// result set.
func (p *Provider) GetMany(tickers []string, period string) (map[string]*PriceSeries, error) {
	results := make(map[string]*PriceSeries, len(tickers))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			series, err := p.GetPriceSeries(ticker, period)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[ticker] = series
		}(ticker)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
