package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/pricing-sim/pricing-sim/sim"
	"github.com/pricing-sim/pricing-sim/sim/payoff"
	"github.com/pricing-sim/pricing-sim/sim/portfolio"
)

// Define structs for YAML
type ScenarioConfig struct {
	Paths          int           `yaml:"paths"`
	Steps          int           `yaml:"steps"`
	Seed           uint64        `yaml:"seed"`
	SoftLimitBytes int64         `yaml:"soft_limit_bytes"`
	Trades         []TradeConfig `yaml:"trades"`
}

type TradeConfig struct {
	ID       string  `yaml:"id"`
	Type     string  `yaml:"type"`   // "call" or "put"
	Payoff   string  `yaml:"payoff"` // "vanilla", "asian", "asian-geometric", "lookback"
	Strike   float64 `yaml:"strike"`
	Quantity float64 `yaml:"quantity"`
	Spot     float64 `yaml:"spot"`
	Rate     float64 `yaml:"rate"`
	Vol      float64 `yaml:"vol"`
	Maturity float64 `yaml:"maturity"`
}

// LoadScenario reads and parses a yaml scenario file.
func LoadScenario(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Trades) == 0 {
		return nil, fmt.Errorf("scenario %s defines no trades", path)
	}
	return &cfg, nil
}

// BuildTrades maps the yaml trade definitions onto portfolio trades.
func (c *ScenarioConfig) BuildTrades() ([]portfolio.Trade, error) {
	trades := make([]portfolio.Trade, 0, len(c.Trades))
	for i, tc := range c.Trades {
		if tc.ID == "" {
			return nil, fmt.Errorf("trade %d has no id", i)
		}
		spec, err := tc.buildSpec()
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", tc.ID, err)
		}
		qty := tc.Quantity
		if qty == 0 {
			qty = 1
		}
		trades = append(trades, portfolio.Trade{
			ID:   tc.ID,
			Spec: spec,
			Params: sim.ModelParams{
				Spot:       tc.Spot,
				Rate:       tc.Rate,
				Volatility: tc.Vol,
				Maturity:   tc.Maturity,
			},
			Quantity: qty,
		})
	}
	return trades, nil
}

func (tc TradeConfig) buildSpec() (sim.PayoffSpec, error) {
	t := payoff.Call
	switch tc.Type {
	case "", "call":
	case "put":
		t = payoff.Put
	default:
		return nil, fmt.Errorf("unknown option type %q", tc.Type)
	}

	switch tc.Payoff {
	case "", "vanilla":
		return payoff.Vanilla{Type: t, Strike: tc.Strike}, nil
	case "asian":
		return payoff.Asian{Type: t, Strike: tc.Strike}, nil
	case "asian-geometric":
		return payoff.Asian{Type: t, Strike: tc.Strike, Geometric: true}, nil
	case "lookback":
		return payoff.Lookback{Type: t}, nil
	default:
		return nil, fmt.Errorf("unknown payoff %q", tc.Payoff)
	}
}
