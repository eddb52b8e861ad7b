package options

// minStressVol keeps shocked volatility away from the degenerate region.
const minStressVol = 0.05

// StressScenario is one row of the stress grid: the shocked inputs, the
// repriced option, and the P&L relative to the base case.
type StressScenario struct {
	Name  string  `json:"name"`
	Spot  float64 `json:"spot"`
	Vol   float64 `json:"vol"`
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
}

type shock struct {
	name    string
	spotChg float64
	volChg  float64
}

// Spot and vol shocks move together: crashes spike volatility, rallies
// dampen it.
var stressShocks = []shock{
	{"Crash -20%", -0.20, 0.50},
	{"Bear -10%", -0.10, 0.25},
	{"Base Case", 0.00, 0.00},
	{"Bull +10%", 0.10, -0.10},
	{"Rally +20%", 0.20, -0.20},
}

// StressTest reprices the contract under the shock grid.
func StressTest(c Contract) ([]StressScenario, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	basePrice := BlackScholes(c).Price

	scenarios := make([]StressScenario, 0, len(stressShocks))
	for _, s := range stressShocks {
		shocked := c
		shocked.Spot = c.Spot * (1 + s.spotChg)
		shocked.Sigma = c.Sigma * (1 + s.volChg)
		if shocked.Sigma < minStressVol {
			shocked.Sigma = minStressVol
		}

		price := BlackScholes(shocked).Price
		scenarios = append(scenarios, StressScenario{
			Name:  s.name,
			Spot:  shocked.Spot,
			Vol:   shocked.Sigma,
			Price: price,
			PnL:   price - basePrice,
		})
	}
	return scenarios, nil
}
