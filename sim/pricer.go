package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// ModelParams carries the market parameters of one pricing request.
type ModelParams struct {
	Spot       float64 // current underlying price
	Rate       float64 // continuously compounded risk-free rate
	Volatility float64 // annualized volatility
	Maturity   float64 // time to expiry in years
}

// PayoffSpec describes the payoff to evaluate. Evaluate is the scalar
// variant consumed by forward-mode tangent propagation; for terminal
// payoffs the argument is the terminal price, for path-dependent specs it
// is the contracted path statistic.
type PayoffSpec interface {
	Evaluate(value float64) float64
}

// IsPathDependent reports whether a spec's scalar Evaluate argument is a
// path statistic rather than the terminal price. Specs opt in by
// implementing PathDependent() bool; terminal payoffs need no marker.
// Forward-mode tangent propagation is gated on this: it contracts the
// tangent with the payoff derivative at the terminal price, which is only
// meaningful for terminal payoffs.
func IsPathDependent(spec PayoffSpec) bool {
	pd, ok := spec.(interface{ PathDependent() bool })
	return ok && pd.PathDependent()
}

// PathGenFunc writes simulated prices into the workspace's path buffer,
// consuming the already filled random buffer. Supplied by the model layer.
type PathGenFunc func(ws *SimulationWorkspace, params ModelParams, nPaths, nSteps int)

// PayoffEvalFunc writes per-path payoff values from the path buffer.
// Supplied by the payoff layer.
type PayoffEvalFunc func(ws *SimulationWorkspace, spec PayoffSpec, nPaths, nSteps int)

// StepFunc advances one path price by a single time step given a
// standard-normal draw. Used by checkpointed stepping and forward-mode
// tangent propagation.
type StepFunc func(price float64, params ModelParams, dt, z float64) float64

// PricingResult is the discounted Monte Carlo estimate and its standard error.
type PricingResult struct {
	Price    float64
	StdError float64
}

// MonteCarloPricer orchestrates the random stream, the workspace, and the
// externally supplied path/payoff routines to produce a price and standard
// error. Execution is single-threaded and synchronous; the pricer owns its
// workspace and stream exclusively.
//
// Determinism contract: for a fixed seed, two pricers with identical
// configuration produce bit-identical results, and Reset() followed by
// re-pricing reproduces the pre-reset result exactly.
type MonteCarloPricer struct {
	cfg     SimulationConfig
	stream  *RandomStream
	ws      *SimulationWorkspace
	pathGen PathGenFunc
	payoff  PayoffEvalFunc
	step    StepFunc

	Metrics *Metrics
}

// NewMonteCarloPricer creates a pricer. Configuration errors (non-positive
// path/step counts, missing routines) are rejected here, before any
// simulation work begins.
func NewMonteCarloPricer(cfg SimulationConfig, funcs EngineFuncs) (*MonteCarloPricer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if funcs.PathGen == nil {
		return nil, fmt.Errorf("%w: path-generation function is required", ErrInvalidConfig)
	}
	if funcs.Payoff == nil {
		return nil, fmt.Errorf("%w: payoff-evaluation function is required", ErrInvalidConfig)
	}
	return &MonteCarloPricer{
		cfg:     cfg,
		stream:  NewRandomStream(cfg.Seed),
		ws:      NewSimulationWorkspace(),
		pathGen: funcs.PathGen,
		payoff:  funcs.Payoff,
		step:    funcs.Step,
		Metrics: &Metrics{},
	}, nil
}

// Config returns the pricer's simulation configuration.
func (p *MonteCarloPricer) Config() SimulationConfig { return p.cfg }

// Workspace exposes the pricer's buffer set for collaborators (path
// generation, payoff evaluation, tests). The pricer remains the owner.
func (p *MonteCarloPricer) Workspace() *SimulationWorkspace { return p.ws }

// Stream exposes the pricer's random stream. The pricer remains the owner.
func (p *MonteCarloPricer) Stream() *RandomStream { return p.stream }

// Reset clears the workspace and reseeds the stream to the original
// configured seed. Re-running after Reset reproduces bit-identical output.
func (p *MonteCarloPricer) Reset() {
	p.ResetWithSeed(p.cfg.Seed)
}

// ResetWithSeed clears the workspace and reseeds the stream to an arbitrary
// seed -- the mechanism behind common-random-number comparisons, where
// bumped re-pricings are run under an identical reseeded stream.
func (p *MonteCarloPricer) ResetWithSeed(seed uint64) {
	p.ws.Reset()
	p.stream.Reseed(seed)
}

// PriceEuropean prices one payoff: it grows the workspace to the configured
// shape, fills the random buffer, delegates path generation and payoff
// evaluation, and returns the discounted mean with its standard error.
//
// Random draws are consumed path-major: path 0's full row first, then
// path 1, and so on. The path-generation routine must consume the random
// buffer rather than the stream so this ordering holds.
func (p *MonteCarloPricer) PriceEuropean(params ModelParams, spec PayoffSpec, discountFactor float64) (PricingResult, error) {
	nPaths, nSteps := p.cfg.Paths, p.cfg.Steps
	p.ws.EnsureCapacity(nPaths, nSteps)

	for path := 0; path < nPaths; path++ {
		p.stream.Fill(p.ws.RandomRow(path))
	}
	p.pathGen(p.ws, params, nPaths, nSteps)
	p.payoff(p.ws, spec, nPaths, nSteps)

	result, err := discountedMean(p.ws.Payoffs(), discountFactor)
	if err != nil {
		return PricingResult{}, err
	}

	p.Metrics.Pricings++
	p.Metrics.PathsSimulated += int64(nPaths)
	p.Metrics.DrawsConsumed += uint64(nPaths) * uint64(nSteps)
	logrus.Debugf("[price] paths=%d steps=%d price=%.6f stderr=%.6f",
		nPaths, nSteps, result.Price, result.StdError)
	return result, nil
}

// discountedMean aggregates per-path payoffs into a discounted mean and the
// discounted sample standard deviation over sqrt(n). A degenerate empty
// vector is rejected at the boundary rather than producing NaN.
func discountedMean(payoffs []float64, discountFactor float64) (PricingResult, error) {
	n := len(payoffs)
	if n == 0 {
		return PricingResult{}, ErrNoObservations
	}

	var sum float64
	for _, v := range payoffs {
		sum += v
	}
	mean := sum / float64(n)

	var variance float64
	if n > 1 {
		for _, v := range payoffs {
			d := v - mean
			variance += d * d
		}
		variance /= float64(n - 1)
	}

	return PricingResult{
		Price:    discountFactor * mean,
		StdError: discountFactor * math.Sqrt(variance/float64(n)),
	}, nil
}

// === Checkpointed stepping ===

// SimulateCheckpointed advances all paths step by step from the spot price,
// feeding each path's observer and saving a state snapshot whenever the
// manager's strategy asks for one. It returns the final state.
//
// Draws are consumed step-major here (one draw per path per step) directly
// from the stream, so a snapshot's draw counter identifies the exact stream
// position at that step. Simulated prices are also written into the
// workspace path buffer column by column.
func (p *MonteCarloPricer) SimulateCheckpointed(params ModelParams, mgr *CheckpointManager) (*SimulationState, error) {
	if p.step == nil {
		return nil, fmt.Errorf("%w: step function is required for checkpointed simulation", ErrInvalidConfig)
	}
	if mgr == nil {
		return nil, fmt.Errorf("%w: checkpoint manager is required", ErrInvalidConfig)
	}

	nPaths, nSteps := p.cfg.Paths, p.cfg.Steps
	p.ws.EnsureCapacity(nPaths, nSteps)
	dt := params.Maturity / float64(nSteps)

	prices := make([]float64, nPaths)
	for path := 0; path < nPaths; path++ {
		prices[path] = params.Spot
		p.ws.SetPrice(path, 0, params.Spot)
		obs := p.ws.Observer(path)
		obs.Reset()
		obs.Observe(params.Spot)
	}

	if mgr.ShouldCheckpoint(0) {
		if err := p.saveSnapshot(mgr, 0, prices); err != nil {
			return nil, err
		}
	}

	for step := 1; step <= nSteps; step++ {
		for path := 0; path < nPaths; path++ {
			z := p.stream.Next()
			prices[path] = p.step(prices[path], params, dt, z)
			p.ws.SetPrice(path, step, prices[path])
			p.ws.Observer(path).Observe(prices[path])
		}
		p.Metrics.DrawsConsumed += uint64(nPaths)
		if mgr.ShouldCheckpoint(step) {
			if err := p.saveSnapshot(mgr, step, prices); err != nil {
				return nil, err
			}
		}
	}

	p.Metrics.PathsSimulated += int64(nPaths)
	return p.snapshotAt(nSteps, prices), nil
}

func (p *MonteCarloPricer) saveSnapshot(mgr *CheckpointManager, step int, prices []float64) error {
	state := p.snapshotAt(step, prices)
	if err := mgr.SaveState(step, state); err != nil {
		return err
	}
	p.Metrics.CheckpointsSaved++
	logrus.Debugf("[step %04d] checkpoint saved (%d bytes held)", step, mgr.MemoryUsage())
	return nil
}

func (p *MonteCarloPricer) snapshotAt(step int, prices []float64) *SimulationState {
	state := &SimulationState{
		Step:      step,
		Seed:      p.stream.Seed(),
		DrawCount: p.stream.DrawCount(),
		Observers: make([]PathObserverState, p.cfg.Paths),
		Prices:    make([]float64, p.cfg.Paths),
	}
	for path := 0; path < p.cfg.Paths; path++ {
		state.Observers[path] = p.ws.Observer(path).Snapshot()
		state.Prices[path] = prices[path]
	}
	return state
}

// ReplayToStep reconstructs the simulation state at targetStep: it restores
// the nearest checkpoint at or before the target, rewinds the stream to that
// snapshot's recorded seed and draw count, and recomputes forward. The
// returned state is bit-identical to what the uninterrupted forward pass
// produced at that step. This is the operation a reverse-mode driver uses to
// obtain intermediate states without retaining every step in memory.
func (p *MonteCarloPricer) ReplayToStep(params ModelParams, mgr *CheckpointManager, targetStep int) (*SimulationState, error) {
	if p.step == nil {
		return nil, fmt.Errorf("%w: step function is required for replay", ErrInvalidConfig)
	}
	if mgr == nil {
		return nil, fmt.Errorf("%w: checkpoint manager is required", ErrInvalidConfig)
	}
	if targetStep < 0 || targetStep > p.cfg.Steps {
		return nil, fmt.Errorf("%w: target step %d outside [0,%d]", ErrInvalidConfig, targetStep, p.cfg.Steps)
	}

	nearest, ok := mgr.NearestCheckpoint(targetStep)
	if !ok {
		return nil, fmt.Errorf("%w: no snapshot at or before step %d", ErrNotFound, targetStep)
	}
	state, err := mgr.RestoreState(nearest)
	if err != nil {
		return nil, err
	}
	if len(state.Prices) != p.cfg.Paths || len(state.Observers) != p.cfg.Paths {
		panic(fmt.Sprintf("replay: snapshot holds %d paths, pricer configured for %d",
			len(state.Prices), p.cfg.Paths))
	}

	p.stream.Reseed(state.Seed)
	p.stream.Skip(state.DrawCount)

	nPaths := p.cfg.Paths
	dt := params.Maturity / float64(p.cfg.Steps)
	observers := make([]PathObserver, nPaths)
	for path := 0; path < nPaths; path++ {
		observers[path].Restore(state.Observers[path])
	}

	for step := state.Step + 1; step <= targetStep; step++ {
		for path := 0; path < nPaths; path++ {
			z := p.stream.Next()
			state.Prices[path] = p.step(state.Prices[path], params, dt, z)
			observers[path].Observe(state.Prices[path])
		}
		p.Metrics.RecomputedSteps++
	}

	for path := 0; path < nPaths; path++ {
		state.Observers[path] = observers[path].Snapshot()
	}
	state.Step = targetStep
	state.Seed = p.stream.Seed()
	state.DrawCount = p.stream.DrawCount()

	p.Metrics.Replays++
	logrus.Debugf("[replay] target=%d resumed from checkpoint %d (%d steps recomputed)",
		targetStep, nearest, targetStep-nearest)
	return state, nil
}
