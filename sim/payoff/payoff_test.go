package payoff

import (
	"math"
	"testing"

	sim "github.com/pricing-sim/pricing-sim/sim"
)

// pathWorkspace builds a workspace holding one explicit price path.
func pathWorkspace(t *testing.T, prices []float64) *sim.SimulationWorkspace {
	t.Helper()
	ws := sim.NewSimulationWorkspace()
	ws.EnsureCapacity(1, len(prices)-1)
	for step, price := range prices {
		ws.SetPrice(0, step, price)
	}
	return ws
}

// TestVanilla_Evaluate verifies call and put intrinsics at the terminal price.
func TestVanilla_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		spec     Vanilla
		terminal float64
		want     float64
	}{
		{"call in the money", Vanilla{Type: Call, Strike: 100}, 110, 10},
		{"call out of the money", Vanilla{Type: Call, Strike: 100}, 90, 0},
		{"call at the money", Vanilla{Type: Call, Strike: 100}, 100, 0},
		{"put in the money", Vanilla{Type: Put, Strike: 100}, 90, 10},
		{"put out of the money", Vanilla{Type: Put, Strike: 100}, 110, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Evaluate(tt.terminal); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestEvaluateTerminal verifies the terminal evaluator writes per-path
// payoffs from the last column.
func TestEvaluateTerminal(t *testing.T) {
	ws := sim.NewSimulationWorkspace()
	ws.EnsureCapacity(3, 2)
	for path, terminal := range []float64{120, 95, 100} {
		ws.SetPrice(path, 2, terminal)
	}

	EvaluateTerminal(ws, Vanilla{Type: Call, Strike: 100}, 3, 2)

	want := []float64{20, 0, 0}
	for path, w := range want {
		if got := ws.Payoffs()[path]; got != w {
			t.Errorf("path %d: expected payoff %v, got %v", path, w, got)
		}
	}
}

// TestEvaluatePath_AsianArithmetic verifies the average-price payoff over an
// explicit path.
func TestEvaluatePath_AsianArithmetic(t *testing.T) {
	// Path 100, 110, 120: arithmetic mean 110.
	ws := pathWorkspace(t, []float64{100, 110, 120})

	EvaluatePath(ws, Asian{Type: Call, Strike: 105}, 1, 2)
	if got := ws.Payoffs()[0]; got != 5 {
		t.Errorf("expected arithmetic Asian payoff 5, got %v", got)
	}

	EvaluatePath(ws, Asian{Type: Put, Strike: 105}, 1, 2)
	if got := ws.Payoffs()[0]; got != 0 {
		t.Errorf("expected out-of-the-money put payoff 0, got %v", got)
	}
}

// TestEvaluatePath_AsianGeometric verifies the geometric averaging variant.
func TestEvaluatePath_AsianGeometric(t *testing.T) {
	ws := pathWorkspace(t, []float64{100, 110, 120})

	EvaluatePath(ws, Asian{Type: Call, Strike: 105, Geometric: true}, 1, 2)
	wantMean := math.Exp((math.Log(100) + math.Log(110) + math.Log(120)) / 3)
	want := wantMean - 105
	if got := ws.Payoffs()[0]; math.Abs(got-want) > 1e-9 {
		t.Errorf("expected geometric Asian payoff %v, got %v", want, got)
	}
}

// TestEvaluatePath_GeometricBelowArithmetic verifies the AM-GM inequality
// shows up in the payoffs for a non-constant path.
func TestEvaluatePath_GeometricBelowArithmetic(t *testing.T) {
	prices := []float64{100, 80, 125, 95}
	ws := pathWorkspace(t, prices)

	EvaluatePath(ws, Asian{Type: Call, Strike: 0, Geometric: false}, 1, len(prices)-1)
	arithmetic := ws.Payoffs()[0]
	EvaluatePath(ws, Asian{Type: Call, Strike: 0, Geometric: true}, 1, len(prices)-1)
	geometric := ws.Payoffs()[0]

	if geometric >= arithmetic {
		t.Errorf("geometric mean %v should lie below arithmetic mean %v", geometric, arithmetic)
	}
}

// TestEvaluatePath_Lookback verifies floating-strike payoffs against the path
// extremes.
func TestEvaluatePath_Lookback(t *testing.T) {
	// Path 100, 85, 130, 110: min 85, max 130, terminal 110.
	ws := pathWorkspace(t, []float64{100, 85, 130, 110})

	EvaluatePath(ws, Lookback{Type: Call}, 1, 3)
	if got := ws.Payoffs()[0]; got != 25 {
		t.Errorf("lookback call: expected terminal-min = 25, got %v", got)
	}

	EvaluatePath(ws, Lookback{Type: Put}, 1, 3)
	if got := ws.Payoffs()[0]; got != 20 {
		t.Errorf("lookback put: expected max-terminal = 20, got %v", got)
	}
}

// TestEvaluatePath_DefaultFallsBackToTerminal verifies unknown specs evaluate
// on the terminal price.
func TestEvaluatePath_DefaultFallsBackToTerminal(t *testing.T) {
	ws := pathWorkspace(t, []float64{100, 140, 120})

	EvaluatePath(ws, Vanilla{Type: Call, Strike: 100}, 1, 2)
	if got := ws.Payoffs()[0]; got != 20 {
		t.Errorf("expected terminal evaluation 20, got %v", got)
	}
}

// TestSpecs_PathDependenceFlags verifies the engine's forward-mode gate sees
// path statistics for averaging and lookback specs but not for vanilla.
func TestSpecs_PathDependenceFlags(t *testing.T) {
	if !sim.IsPathDependent(Asian{Type: Call, Strike: 100}) {
		t.Error("Asian should be flagged path-dependent")
	}
	if !sim.IsPathDependent(Lookback{Type: Call}) {
		t.Error("Lookback should be flagged path-dependent")
	}
	if sim.IsPathDependent(Vanilla{Type: Call, Strike: 100}) {
		t.Error("Vanilla evaluates on the terminal price and must not be flagged")
	}
}

// TestOptionType_String verifies flag rendering.
func TestOptionType_String(t *testing.T) {
	if Call.String() != "call" || Put.String() != "put" {
		t.Errorf("unexpected renderings: %q, %q", Call.String(), Put.String())
	}
}
