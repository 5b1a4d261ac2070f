// Package payoff provides payoff specifications and workspace evaluators
// for the pricing engine. Specs implement sim.PayoffSpec; the evaluators
// adapt them to the engine's PayoffEvalFunc contract.
package payoff

import (
	"math"

	sim "github.com/pricing-sim/pricing-sim/sim"
)

// OptionType distinguishes calls from puts.
type OptionType int

const (
	Call OptionType = iota
	Put
)

func (t OptionType) String() string {
	if t == Put {
		return "put"
	}
	return "call"
}

// intrinsic is the exercise value of a vanilla option at the given level.
func intrinsic(t OptionType, level, strike float64) float64 {
	if t == Call {
		return math.Max(level-strike, 0)
	}
	return math.Max(strike-level, 0)
}

// === Vanilla ===

// Vanilla is a European call or put on the terminal price.
type Vanilla struct {
	Type   OptionType
	Strike float64
}

// Evaluate returns the exercise value at the terminal price.
func (v Vanilla) Evaluate(terminal float64) float64 {
	return intrinsic(v.Type, terminal, v.Strike)
}

// === Asian ===

// Asian is an average-price option. The averaging statistic is the
// arithmetic or geometric mean of the observed path. Its scalar Evaluate
// treats the argument as the realized average.
type Asian struct {
	Type      OptionType
	Strike    float64
	Geometric bool
}

// Evaluate returns the exercise value at the realized average.
func (a Asian) Evaluate(average float64) float64 {
	return intrinsic(a.Type, average, a.Strike)
}

// PathDependent marks the scalar argument as a path statistic.
func (Asian) PathDependent() bool { return true }

// === Lookback ===

// Lookback is a floating-strike lookback option: a call pays
// terminal - pathMin, a put pays pathMax - terminal. Its scalar Evaluate
// treats the argument as the already computed payoff level and returns it
// floored at zero.
type Lookback struct {
	Type OptionType
}

// Evaluate floors the supplied payoff level at zero.
func (Lookback) Evaluate(level float64) float64 {
	return math.Max(level, 0)
}

// PathDependent marks the scalar argument as a path statistic.
func (Lookback) PathDependent() bool { return true }

// === Evaluators ===

// EvaluateTerminal writes per-path payoffs from terminal prices. This is the
// evaluator for purely terminal specs such as Vanilla.
func EvaluateTerminal(ws *sim.SimulationWorkspace, spec sim.PayoffSpec, nPaths, nSteps int) {
	for path := 0; path < nPaths; path++ {
		ws.SetPayoff(path, spec.Evaluate(ws.PriceAt(path, nSteps)))
	}
}

// EvaluatePath writes per-path payoffs for path-dependent specs by feeding
// each path's prices through its workspace observer and dispatching on the
// spec type for the contracted statistic. Unknown specs fall back to
// terminal evaluation.
func EvaluatePath(ws *sim.SimulationWorkspace, spec sim.PayoffSpec, nPaths, nSteps int) {
	switch s := spec.(type) {
	case Asian:
		for path := 0; path < nPaths; path++ {
			obs := observePath(ws, path, nSteps)
			if s.Geometric {
				ws.SetPayoff(path, s.Evaluate(obs.GeometricMean()))
			} else {
				ws.SetPayoff(path, s.Evaluate(obs.ArithmeticMean()))
			}
		}
	case Lookback:
		for path := 0; path < nPaths; path++ {
			obs := observePath(ws, path, nSteps)
			terminal := ws.PriceAt(path, nSteps)
			if s.Type == Call {
				ws.SetPayoff(path, s.Evaluate(terminal-obs.Min()))
			} else {
				ws.SetPayoff(path, s.Evaluate(obs.Max()-terminal))
			}
		}
	default:
		EvaluateTerminal(ws, spec, nPaths, nSteps)
	}
}

// observePath resets one path's observer and folds its full price row in.
func observePath(ws *sim.SimulationWorkspace, path, nSteps int) *sim.PathObserver {
	obs := ws.Observer(path)
	obs.Reset()
	for _, price := range ws.PathRow(path) {
		obs.Observe(price)
	}
	return obs
}
