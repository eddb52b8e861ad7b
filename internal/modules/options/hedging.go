package options

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/pkg/formulas"
)

// maxDisplayPaths caps how many simulated paths go back over the wire;
// summary statistics still use every path.
const maxDisplayPaths = 50

// expiryCutoff is the remaining time below which the hedge switches to the
// terminal exercise decision instead of a Black-Scholes delta.
const expiryCutoff = 0.001

// HedgingParams configures a delta-hedging simulation.
type HedgingParams struct {
	Contract Contract
	Steps    int
	Paths    int
	// Seed fixes the random source when non-zero.
	Seed int64
}

// Validate bounds the simulation size.
func (p HedgingParams) Validate() error {
	if err := p.Contract.Validate(); err != nil {
		return err
	}
	if p.Steps < 1 {
		return apperr.InvalidParameterError{Detail: "n_steps must be at least 1"}
	}
	if p.Paths < 1 {
		return apperr.InvalidParameterError{Detail: "n_paths must be at least 1"}
	}
	if p.Steps > 2520 {
		return apperr.InvalidParameterError{Detail: "n_steps must not exceed 2520"}
	}
	if p.Paths > 100000 {
		return apperr.InvalidParameterError{Detail: "n_paths must not exceed 100000"}
	}
	return nil
}

// HedgingResult summarizes the hedge performance across all paths. Paths and
// PortfolioValues are truncated for display; HedgingErrors covers every path.
type HedgingResult struct {
	InitialPrice    float64     `json:"initial_price"`
	MeanError       float64     `json:"mean_error"`
	StdError        float64     `json:"std_error"`
	VaR95           float64     `json:"var_95"`
	TimeSteps       []float64   `json:"time_steps"`
	Paths           [][]float64 `json:"paths"`
	PortfolioValues [][]float64 `json:"portfolio_values"`
	HedgingErrors   []float64   `json:"hedging_errors"`
}

// Simulator runs delta-hedging simulations across a fixed-size worker pool.
type Simulator struct {
	workers int
	log     zerolog.Logger
}

// NewSimulator creates a simulator
func NewSimulator(workers int, log zerolog.Logger) *Simulator {
	if workers <= 0 {
		workers = 4
	}
	return &Simulator{
		workers: workers,
		log:     log.With().Str("component", "hedging").Logger(),
	}
}

// pathOutcome is one simulated path's trajectory and hedge error.
type pathOutcome struct {
	prices    []float64
	portfolio []float64
	err       float64
}

// Run simulates GBM paths under the risk-neutral drift and rebalances a
// self-financing delta hedge at every step. The hedging error per path is
// the final hedge portfolio value minus the option payoff.
func (s *Simulator) Run(p HedgingParams) (*HedgingResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c := p.Contract
	initial := BlackScholes(c)
	dt := c.T / float64(p.Steps)

	seed := p.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	outcomes := make([]pathOutcome, p.Paths)

	workers := s.workers
	if p.Paths < workers {
		workers = p.Paths
	}

	// Paths are split into contiguous chunks, one goroutine per chunk, each
	// with its own random source.
	var wg sync.WaitGroup
	chunk := (p.Paths + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > p.Paths {
			hi = p.Paths
		}
		if lo >= hi {
			break
		}

		wg.Add(1)
		go func(lo, hi int, rng *rand.Rand) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				outcomes[i] = simulatePath(c, initial.Price, dt, p.Steps, rng)
			}
		}(lo, hi, rand.New(rand.NewSource(seed+int64(w))))
	}
	wg.Wait()

	errors := make([]float64, p.Paths)
	for i, o := range outcomes {
		errors[i] = o.err
	}

	display := p.Paths
	if display > maxDisplayPaths {
		display = maxDisplayPaths
	}
	paths := make([][]float64, display)
	values := make([][]float64, display)
	for i := 0; i < display; i++ {
		paths[i] = outcomes[i].prices
		values[i] = outcomes[i].portfolio
	}

	timeSteps := make([]float64, p.Steps+1)
	for t := range timeSteps {
		timeSteps[t] = c.T * float64(t) / float64(p.Steps)
	}

	result := &HedgingResult{
		InitialPrice:    initial.Price,
		MeanError:       formulas.Mean(errors),
		StdError:        populationStdDev(errors),
		VaR95:           percentile(errors, 5),
		TimeSteps:       timeSteps,
		Paths:           paths,
		PortfolioValues: values,
		HedgingErrors:   errors,
	}

	s.log.Debug().
		Int("paths", p.Paths).
		Int("steps", p.Steps).
		Float64("mean_error", result.MeanError).
		Float64("std_error", result.StdError).
		Msg("Hedging simulation complete")

	return result, nil
}

// simulatePath walks one GBM path and maintains the hedge: hold delta shares
// of stock, keep the rest in cash accruing at the risk-free rate, and trade
// the delta change at the new spot on each rebalance.
func simulatePath(c Contract, initialPrice, dt float64, steps int, rng *rand.Rand) pathOutcome {
	drift := (c.R - 0.5*c.Sigma*c.Sigma) * dt
	diffusion := c.Sigma * math.Sqrt(dt)
	growth := math.Exp(c.R * dt)

	prices := make([]float64, steps+1)
	portfolio := make([]float64, steps+1)

	prices[0] = c.Spot
	currentDelta := delta(c)
	cash := initialPrice - currentDelta*c.Spot
	portfolio[0] = currentDelta*c.Spot + cash

	for t := 1; t <= steps; t++ {
		spot := prices[t-1] * math.Exp(drift+diffusion*rng.NormFloat64())
		prices[t] = spot

		ttm := c.T - float64(t)*dt
		var newDelta float64
		if ttm > expiryCutoff {
			step := c
			step.Spot = spot
			step.T = ttm
			newDelta = delta(step)
		} else if c.Type == Put {
			if spot < c.Strike {
				newDelta = -1
			}
		} else if spot > c.Strike {
			newDelta = 1
		}

		cash = cash*growth - (newDelta-currentDelta)*spot
		currentDelta = newDelta
		portfolio[t] = currentDelta*spot + cash
	}

	return pathOutcome{
		prices:    prices,
		portfolio: portfolio,
		err:       portfolio[steps] - payoff(prices[steps], c.Strike, c.Type),
	}
}

// populationStdDev divides by n, not n-1, which is the right reading for a
// full set of simulated outcomes.
func populationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := formulas.Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// percentile interpolates linearly between order statistics.
func percentile(values []float64, pct float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
