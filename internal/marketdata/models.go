// Package marketdata fetches and caches historical price series. The engine
// treats the market-data source as an external collaborator: every fetch is a
// bounded, single-shot call with one fallback attempt at the broadest period.
package marketdata

import (
	"time"
)

// Candle is one OHLCV observation.
type Candle struct {
	Date   time.Time `json:"Date" msgpack:"d"`
	Open   float64   `json:"Open" msgpack:"o"`
	High   float64   `json:"High" msgpack:"h"`
	Low    float64   `json:"Low" msgpack:"l"`
	Close  float64   `json:"Close" msgpack:"c"`
	Volume int64     `json:"Volume" msgpack:"v"`
}

// PriceSeries is an ordered price history for one ticker, dates strictly
// increasing. It is immutable once fetched; callers derive return series from
// it rather than mutating it.
type PriceSeries struct {
	Ticker  string   `msgpack:"t"`
	Candles []Candle `msgpack:"cs"`
}

// Closes returns the close prices in date order.
func (ps *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(ps.Candles))
	for i, c := range ps.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Dates returns the observation dates in order.
func (ps *PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(ps.Candles))
	for i, c := range ps.Candles {
		dates[i] = c.Date
	}
	return dates
}

// Len returns the number of observations.
func (ps *PriceSeries) Len() int {
	return len(ps.Candles)
}
