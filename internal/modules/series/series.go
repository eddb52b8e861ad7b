// Package series turns raw price histories into aligned return and
// cumulative-return series, optionally resampled to weekly or monthly bars.
package series

import (
	"fmt"
	"time"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/internal/marketdata"
	"github.com/aristath/quantdesk/pkg/formulas"
)

// Timeframe selects the sampling frequency of a return series.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// ParseTimeframe validates a caller-supplied timeframe string. The empty
// string means daily.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case "", TimeframeDaily:
		return TimeframeDaily, nil
	case TimeframeWeekly:
		return TimeframeWeekly, nil
	case TimeframeMonthly:
		return TimeframeMonthly, nil
	default:
		return "", apperr.InvalidParameterError{
			Detail: fmt.Sprintf("unknown timeframe %q (want daily, weekly or monthly)", s),
		}
	}
}

// PeriodsPerYear returns the annualization factor for a timeframe.
func (tf Timeframe) PeriodsPerYear() int {
	switch tf {
	case TimeframeWeekly:
		return 52
	case TimeframeMonthly:
		return 12
	default:
		return 252
	}
}

// ReturnSeries holds per-period simple returns derived from a price series,
// index-aligned to the later date of each price pair, plus the compounded
// growth-of-1 series.
type ReturnSeries struct {
	Dates      []time.Time
	Returns    []float64
	Cumulative []float64
}

// Len returns the number of return observations.
func (rs *ReturnSeries) Len() int {
	return len(rs.Returns)
}

// Resample reduces a price series to the last observation of each calendar
// period. Daily input passes through unchanged.
func Resample(ps *marketdata.PriceSeries, tf Timeframe) *marketdata.PriceSeries {
	if tf == TimeframeDaily {
		return ps
	}

	var out []marketdata.Candle
	for _, c := range ps.Candles {
		if len(out) > 0 && samePeriod(out[len(out)-1].Date, c.Date, tf) {
			out[len(out)-1] = c
			continue
		}
		out = append(out, c)
	}

	return &marketdata.PriceSeries{Ticker: ps.Ticker, Candles: out}
}

func samePeriod(a, b time.Time, tf Timeframe) bool {
	switch tf {
	case TimeframeWeekly:
		ay, aw := a.ISOWeek()
		by, bw := b.ISOWeek()
		return ay == by && aw == bw
	case TimeframeMonthly:
		return a.Year() == b.Year() && a.Month() == b.Month()
	default:
		return false
	}
}

// Build resamples a price series and derives its return series. Fails with
// InsufficientData when fewer than 2 observations remain after resampling.
func Build(ps *marketdata.PriceSeries, tf Timeframe) (*ReturnSeries, error) {
	resampled := Resample(ps, tf)
	if resampled.Len() < 2 {
		return nil, apperr.InsufficientDataError{
			Detail: fmt.Sprintf("%s: %d observations after %s resampling, need at least 2",
				ps.Ticker, resampled.Len(), tf),
		}
	}

	returns := formulas.CalculateReturns(resampled.Closes())
	return &ReturnSeries{
		Dates:      resampled.Dates()[1:],
		Returns:    returns,
		Cumulative: formulas.CumulativeReturns(returns),
	}, nil
}
