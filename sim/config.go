package sim

import "fmt"

// SimulationConfig groups the shape and seed of one pricer's simulation.
type SimulationConfig struct {
	Paths int    // number of Monte Carlo paths (must be > 0)
	Steps int    // number of time steps per path (must be > 0)
	Seed  uint64 // master seed; Reset() returns the stream to this seed
}

// NewSimulationConfig creates a SimulationConfig from its field values.
func NewSimulationConfig(paths, steps int, seed uint64) SimulationConfig {
	return SimulationConfig{Paths: paths, Steps: steps, Seed: seed}
}

// Validate rejects unusable configurations before any simulation work begins.
func (c SimulationConfig) Validate() error {
	if c.Paths <= 0 {
		return fmt.Errorf("%w: paths=%d, must be positive", ErrInvalidConfig, c.Paths)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps=%d, must be positive", ErrInvalidConfig, c.Steps)
	}
	return nil
}

// EngineFuncs groups the externally supplied simulation routines. PathGen
// and Payoff are required; Step is required only for checkpointed stepping
// and forward-mode tangent propagation.
type EngineFuncs struct {
	PathGen PathGenFunc
	Payoff  PayoffEvalFunc
	Step    StepFunc
}

// BumpConfig groups finite-difference bump sizes for Greeks estimation.
type BumpConfig struct {
	SpotRel   float64 // relative spot bump for Delta/Gamma (fraction of spot)
	VolAbs    float64 // absolute volatility bump for Vega
	RateAbs   float64 // absolute rate bump for Rho
	ThetaDays float64 // maturity shortening for Theta, in calendar days
}

// DefaultBumpConfig returns the bump sizes used when the caller does not
// override them.
func DefaultBumpConfig() BumpConfig {
	return BumpConfig{
		SpotRel:   0.01,
		VolAbs:    0.01,
		RateAbs:   0.0001,
		ThetaDays: 1.0,
	}
}

// Validate rejects non-positive bump sizes.
func (b BumpConfig) Validate() error {
	if b.SpotRel <= 0 || b.VolAbs <= 0 || b.RateAbs <= 0 || b.ThetaDays <= 0 {
		return fmt.Errorf("%w: bump sizes must all be positive: %+v", ErrInvalidConfig, b)
	}
	return nil
}

// CheckpointConfig selects and parameterizes a checkpoint strategy from
// plain values, the form CLI flags and yaml scenarios arrive in.
type CheckpointConfig struct {
	Strategy    string `yaml:"strategy"`     // "none", "uniform", "logarithmic", "adaptive", "binomial"
	Interval    int    `yaml:"interval"`     // uniform interval / logarithmic base interval
	MemorySlots int    `yaml:"memory_slots"` // binomial slot cap (0 = uncapped)
	BudgetBytes uint64 `yaml:"budget_bytes"` // memory budget ceiling (0 = no budget)
}

// BuildStrategy maps the config onto a concrete CheckpointStrategy.
func (c CheckpointConfig) BuildStrategy() (CheckpointStrategy, error) {
	switch c.Strategy {
	case "", "none":
		return NoneStrategy{}, nil
	case "uniform":
		return NewUniformStrategy(c.Interval), nil
	case "logarithmic":
		return NewLogarithmicStrategy(c.Interval), nil
	case "adaptive":
		return AdaptiveStrategy{}, nil
	case "binomial":
		return NewBinomialStrategy(c.MemorySlots), nil
	default:
		return nil, fmt.Errorf("%w: unknown checkpoint strategy %q", ErrInvalidConfig, c.Strategy)
	}
}

// BuildManager assembles a CheckpointManager for a simulation of totalSteps,
// attaching a MemoryBudget when a ceiling is configured.
func (c CheckpointConfig) BuildManager(totalSteps int) (*CheckpointManager, error) {
	strategy, err := c.BuildStrategy()
	if err != nil {
		return nil, err
	}
	mgr := NewCheckpointManager(strategy, totalSteps)
	if c.BudgetBytes > 0 {
		mgr.WithMemoryBudget(NewMemoryBudget(c.BudgetBytes))
	}
	return mgr, nil
}
