// Package options prices European options analytically (Black-Scholes),
// numerically (Cox-Ross-Rubinstein binomial tree), and by Monte Carlo
// delta-hedging simulation, plus spot/vol stress scenarios.
package options

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/quantdesk/internal/apperr"
)

// OptionType is the option side, call or put.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts the side case-insensitively. The side must be
// explicit; an omitted option_type is rejected rather than priced as a call.
func ParseOptionType(s string) (OptionType, error) {
	switch OptionType(strings.ToLower(s)) {
	case Call:
		return Call, nil
	case Put:
		return Put, nil
	case "":
		return "", apperr.InvalidParameterError{Detail: "option_type is required, want call or put"}
	default:
		return "", apperr.InvalidParameterError{
			Detail: fmt.Sprintf("unknown option type %q, want call or put", s),
		}
	}
}

// Contract is a single European option and its market environment.
// T is time to expiry in years, Sigma is annualized volatility, R the
// continuously compounded risk-free rate.
type Contract struct {
	Spot   float64
	Strike float64
	T      float64
	R      float64
	Sigma  float64
	Type   OptionType
}

// Validate rejects contracts Black-Scholes cannot price.
func (c Contract) Validate() error {
	switch {
	case c.Spot <= 0:
		return apperr.InvalidParameterError{Detail: "spot price must be positive"}
	case c.Strike <= 0:
		return apperr.InvalidParameterError{Detail: "strike price must be positive"}
	case c.T <= 0:
		return apperr.InvalidParameterError{Detail: "time to expiry must be positive"}
	case c.Sigma <= 0:
		return apperr.InvalidParameterError{Detail: "volatility must be positive"}
	}
	return nil
}

// Greeks holds the Black-Scholes price and sensitivities.
// Vega is absolute (per unit of vol, not per 1% move) and Theta is
// annualized. Rho is absolute, per unit of rate.
type Greeks struct {
	Price float64 `json:"Price"`
	Delta float64 `json:"Delta"`
	Gamma float64 `json:"Gamma"`
	Vega  float64 `json:"Vega"`
	Theta float64 `json:"Theta"`
	Rho   float64 `json:"Rho"`
}

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// BlackScholes computes the analytical price and Greeks. The contract must
// be validated first; pricing a degenerate contract returns zeros.
func BlackScholes(c Contract) Greeks {
	if c.T <= 0 || c.Sigma <= 0 {
		return Greeks{}
	}

	sqrtT := math.Sqrt(c.T)
	d1 := (math.Log(c.Spot/c.Strike) + (c.R+0.5*c.Sigma*c.Sigma)*c.T) / (c.Sigma * sqrtT)
	d2 := d1 - c.Sigma*sqrtT
	discount := math.Exp(-c.R * c.T)
	pdfD1 := stdNormal.Prob(d1)

	g := Greeks{
		Gamma: pdfD1 / (c.Spot * c.Sigma * sqrtT),
		Vega:  c.Spot * sqrtT * pdfD1,
	}

	if c.Type == Put {
		g.Price = c.Strike*discount*stdNormal.CDF(-d2) - c.Spot*stdNormal.CDF(-d1)
		g.Delta = -stdNormal.CDF(-d1)
		g.Theta = -(c.Spot*pdfD1*c.Sigma)/(2*sqrtT) + c.R*c.Strike*discount*stdNormal.CDF(-d2)
		g.Rho = -c.Strike * c.T * discount * stdNormal.CDF(-d2)
	} else {
		g.Price = c.Spot*stdNormal.CDF(d1) - c.Strike*discount*stdNormal.CDF(d2)
		g.Delta = stdNormal.CDF(d1)
		g.Theta = -(c.Spot*pdfD1*c.Sigma)/(2*sqrtT) - c.R*c.Strike*discount*stdNormal.CDF(d2)
		g.Rho = c.Strike * c.T * discount * stdNormal.CDF(d2)
	}
	return g
}

// delta returns just the hedge ratio, for the simulator's inner loop.
func delta(c Contract) float64 {
	sqrtT := math.Sqrt(c.T)
	d1 := (math.Log(c.Spot/c.Strike) + (c.R+0.5*c.Sigma*c.Sigma)*c.T) / (c.Sigma * sqrtT)
	if c.Type == Put {
		return -stdNormal.CDF(-d1)
	}
	return stdNormal.CDF(d1)
}

// payoff is the option's value at expiry for terminal spot s.
func payoff(s, strike float64, typ OptionType) float64 {
	if typ == Put {
		return math.Max(strike-s, 0)
	}
	return math.Max(s-strike, 0)
}
