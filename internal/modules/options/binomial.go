package options

import (
	"math"

	"github.com/aristath/quantdesk/internal/apperr"
)

// TreeResult is the binomial price plus the lattice parameters used.
type TreeResult struct {
	Price float64 `json:"Price"`
	Up    float64 `json:"u"`
	Down  float64 `json:"d"`
	Prob  float64 `json:"p"`
}

// BinomialTree prices the contract on a Cox-Ross-Rubinstein lattice with
// steps time steps. Only the option values for the current step are kept
// during the backward induction.
func BinomialTree(c Contract, steps int) (TreeResult, error) {
	if err := c.Validate(); err != nil {
		return TreeResult{}, err
	}
	if steps < 1 {
		return TreeResult{}, apperr.InvalidParameterError{Detail: "tree steps must be at least 1"}
	}

	dt := c.T / float64(steps)
	u := math.Exp(c.Sigma * math.Sqrt(dt))
	d := 1 / u
	p := (math.Exp(c.R*dt) - d) / (u - d)
	discount := math.Exp(-c.R * dt)

	// Terminal payoffs; values[j] is the node with j down moves.
	values := make([]float64, steps+1)
	for j := 0; j <= steps; j++ {
		terminal := c.Spot * math.Pow(u, float64(steps-j)) * math.Pow(d, float64(j))
		values[j] = payoff(terminal, c.Strike, c.Type)
	}

	for i := steps - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			values[j] = discount * (p*values[j] + (1-p)*values[j+1])
		}
	}

	return TreeResult{Price: values[0], Up: u, Down: d, Prob: p}, nil
}

// BinomialDelta approximates the hedge ratio from the first lattice step.
func BinomialDelta(c Contract, steps int) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if steps < 2 {
		return 0, apperr.InvalidParameterError{Detail: "delta needs at least 2 tree steps"}
	}

	dt := c.T / float64(steps)
	u := math.Exp(c.Sigma * math.Sqrt(dt))
	d := 1 / u

	up := c
	up.Spot = c.Spot * u
	up.T = c.T - dt
	down := c
	down.Spot = c.Spot * d
	down.T = c.T - dt

	upResult, err := BinomialTree(up, steps-1)
	if err != nil {
		return 0, err
	}
	downResult, err := BinomialTree(down, steps-1)
	if err != nil {
		return 0, err
	}

	return (upResult.Price - downResult.Price) / (up.Spot - down.Spot), nil
}
