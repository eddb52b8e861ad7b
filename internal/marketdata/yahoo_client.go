package marketdata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// HistoricalSource fetches a raw price history for one ticker over a named
// period ("1y", "2y", "max", ...). Implementations must be safe for concurrent
// use.
type HistoricalSource interface {
	GetHistoricalPrices(symbol, period string) ([]Candle, error)
}

// YahooClient implements HistoricalSource using the go-yfinance library.
type YahooClient struct {
	log zerolog.Logger
}

// NewYahooClient creates a new Yahoo Finance client
func NewYahooClient(log zerolog.Logger) *YahooClient {
	return &YahooClient{
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// GetHistoricalPrices fetches daily OHLCV data for symbol over period.
func (c *YahooClient) GetHistoricalPrices(symbol, period string) ([]Candle, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	t, err := ticker.New(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	params := models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	}

	bars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}

	candles := make([]Candle, 0, len(bars))
	for _, bar := range bars {
		// Non-positive closes (bad prints, WTI-style negatives) are dropped so
		// downstream return math never divides by zero.
		if bar.Close <= 0 {
			continue
		}
		candles = append(candles, Candle{
			Date:   bar.Date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: int64(bar.Volume),
		})
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})

	c.log.Debug().
		Str("symbol", normalized).
		Str("period", period).
		Int("candles", len(candles)).
		Msg("Fetched historical prices")

	return candles, nil
}
