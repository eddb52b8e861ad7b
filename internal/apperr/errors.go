// Package apperr defines the error taxonomy shared by all analytics modules and
// its mapping onto HTTP status codes. Handlers reply to every failure with a
// structured {"detail": message} body; the concrete error type picks the code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// InvalidTickerError indicates a symbol the market-data source cannot resolve.
type InvalidTickerError struct {
	Ticker string
}

func (e InvalidTickerError) Error() string {
	return fmt.Sprintf("no data found for %s", e.Ticker)
}

// InvalidParameterError indicates a malformed request parameter (window sizes,
// thresholds, weights, option inputs). Validation happens at the boundary before
// any computation starts.
type InvalidParameterError struct {
	Detail string
}

func (e InvalidParameterError) Error() string {
	return e.Detail
}

// DataSourceUnavailableError indicates the upstream market-data fetch failed,
// including the single fallback attempt at the broadest period.
type DataSourceUnavailableError struct {
	Ticker string
	Err    error
}

func (e DataSourceUnavailableError) Error() string {
	return fmt.Sprintf("market data unavailable for %s: %v", e.Ticker, e.Err)
}

func (e DataSourceUnavailableError) Unwrap() error {
	return e.Err
}

// InsufficientDataError indicates too few observations remain for the requested
// computation (short history, aggressive resampling, or a thin date overlap).
type InsufficientDataError struct {
	Detail string
}

func (e InsufficientDataError) Error() string {
	return e.Detail
}

// InternalComputationError indicates an unexpected numerical failure. It is
// logged by the handler and surfaced as a 500.
type InternalComputationError struct {
	Detail string
}

func (e InternalComputationError) Error() string {
	return e.Detail
}

// HTTPStatus maps an error to its HTTP status code per the taxonomy. Unknown
// errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.As(err, &InvalidTickerError{}):
		return http.StatusNotFound
	case errors.As(err, &InvalidParameterError{}):
		return http.StatusBadRequest
	case errors.As(err, &InsufficientDataError{}):
		return http.StatusBadRequest
	case errors.As(err, &DataSourceUnavailableError{}):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
