package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricing-sim/pricing-sim/sim/payoff"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidYAML(t *testing.T) {
	yaml := `
paths: 5000
steps: 25
seed: 7
soft_limit_bytes: 1048576
trades:
  - id: atm-call
    type: call
    payoff: vanilla
    strike: 100.0
    quantity: 10
    spot: 100.0
    rate: 0.05
    vol: 0.2
    maturity: 1.0
  - id: lookback-hedge
    type: put
    payoff: lookback
    quantity: -2
    spot: 95.0
    rate: 0.03
    vol: 0.3
    maturity: 0.5
`
	scenario, err := LoadScenario(writeTempYAML(t, yaml))
	require.NoError(t, err)
	assert.Equal(t, 5000, scenario.Paths)
	assert.Equal(t, 25, scenario.Steps)
	assert.Equal(t, uint64(7), scenario.Seed)
	assert.Equal(t, int64(1048576), scenario.SoftLimitBytes)
	require.Len(t, scenario.Trades, 2)

	trades, err := scenario.BuildTrades()
	require.NoError(t, err)

	call, ok := trades[0].Spec.(payoff.Vanilla)
	require.True(t, ok, "first spec should be vanilla")
	assert.Equal(t, payoff.Call, call.Type)
	assert.Equal(t, 100.0, call.Strike)
	assert.Equal(t, 10.0, trades[0].Quantity)
	assert.Equal(t, 100.0, trades[0].Params.Spot)

	lb, ok := trades[1].Spec.(payoff.Lookback)
	require.True(t, ok, "second spec should be lookback")
	assert.Equal(t, payoff.Put, lb.Type)
	assert.Equal(t, -2.0, trades[1].Quantity)
}

func TestLoadScenario_NoTrades(t *testing.T) {
	_, err := LoadScenario(writeTempYAML(t, "paths: 100\nsteps: 10\n"))
	assert.Error(t, err, "a scenario without trades is unusable")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestBuildTrades_Defaults(t *testing.T) {
	scenario := &ScenarioConfig{Trades: []TradeConfig{
		{ID: "bare", Strike: 100, Spot: 100, Vol: 0.2, Maturity: 1},
	}}
	trades, err := scenario.BuildTrades()
	require.NoError(t, err)

	// Omitted type/payoff default to a vanilla call, omitted quantity to 1.
	spec, ok := trades[0].Spec.(payoff.Vanilla)
	require.True(t, ok)
	assert.Equal(t, payoff.Call, spec.Type)
	assert.Equal(t, 1.0, trades[0].Quantity)
}

func TestBuildTrades_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		trade TradeConfig
	}{
		{"missing id", TradeConfig{Payoff: "vanilla"}},
		{"unknown payoff", TradeConfig{ID: "x", Payoff: "rainbow"}},
		{"unknown type", TradeConfig{ID: "x", Type: "straddle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := &ScenarioConfig{Trades: []TradeConfig{tt.trade}}
			_, err := scenario.BuildTrades()
			assert.Error(t, err)
		})
	}
}
