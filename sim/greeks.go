package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// GreeksMode selects the sensitivity-computation strategy.
type GreeksMode int

const (
	// ModeAuto resolves to the best available concrete mode.
	ModeAuto GreeksMode = iota
	// ModeFiniteDifference bumps one parameter at a time and re-prices under
	// common random numbers.
	ModeFiniteDifference
	// ModeForward propagates a single tangent alongside the primal pass.
	ModeForward
	// ModeReverse requests checkpoint-backed reverse replay. Until an
	// adjoint engine is built in it deterministically falls back to the
	// finite-difference implementation; the fallback is a capability gate,
	// not a result-changing approximation switch.
	ModeReverse
	// ModeReverseStrict requests reverse mode and fails loudly with
	// ErrReverseUnavailable when the adjoint engine is absent, rather than
	// silently degrading.
	ModeReverseStrict
)

// reverseModeAvailable gates the reverse-mode adjoint engine. The
// checkpoint replay half of reverse mode (SimulateCheckpointed/ReplayToStep)
// is implemented; the adjoint accumulation half is not.
const reverseModeAvailable = false

func (m GreeksMode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeFiniteDifference:
		return "finite-difference"
	case ModeForward:
		return "forward"
	case ModeReverse:
		return "reverse"
	case ModeReverseStrict:
		return "reverse-strict"
	default:
		return fmt.Sprintf("GreeksMode(%d)", int(m))
	}
}

// ParseGreeksMode maps a flag value onto a GreeksMode.
func ParseGreeksMode(s string) (GreeksMode, error) {
	switch s {
	case "", "auto":
		return ModeAuto, nil
	case "finite-difference", "fd":
		return ModeFiniteDifference, nil
	case "forward":
		return ModeForward, nil
	case "reverse":
		return ModeReverse, nil
	case "reverse-strict":
		return ModeReverseStrict, nil
	default:
		return ModeAuto, fmt.Errorf("%w: unknown greeks mode %q", ErrInvalidConfig, s)
	}
}

// Resolve turns the mode into a concrete, dispatchable strategy once, up
// front. Auto picks the best available mode; Reverse falls back to finite
// difference while the adjoint engine is absent; ReverseStrict errors
// instead of degrading.
func (m GreeksMode) Resolve() (GreeksMode, error) {
	switch m {
	case ModeAuto:
		if reverseModeAvailable {
			return ModeReverse, nil
		}
		return ModeFiniteDifference, nil
	case ModeReverse:
		if reverseModeAvailable {
			return ModeReverse, nil
		}
		logrus.Debugf("greeks: reverse mode unavailable, falling back to finite difference")
		return ModeFiniteDifference, nil
	case ModeReverseStrict:
		if reverseModeAvailable {
			return ModeReverse, nil
		}
		return 0, fmt.Errorf("%w: mode %s requested", ErrReverseUnavailable, m)
	case ModeFiniteDifference, ModeForward:
		return m, nil
	default:
		return 0, fmt.Errorf("%w: unknown greeks mode %d", ErrInvalidConfig, int(m))
	}
}

// Greeks holds first- and second-order price sensitivities.
type Greeks struct {
	Delta float64 // dPrice/dSpot
	Gamma float64 // d2Price/dSpot2
	Vega  float64 // dPrice/dVolatility
	Theta float64 // dPrice/dTime (calendar decay, typically negative)
	Rho   float64 // dPrice/dRate
}

// GreeksResult bundles the base price with its sensitivities and the
// concrete mode that produced them.
type GreeksResult struct {
	PricingResult
	Greeks Greeks
	Mode   GreeksMode
}

// PriceWithGreeks prices the payoff and computes sensitivities in the
// requested mode with default bump sizes.
func (p *MonteCarloPricer) PriceWithGreeks(params ModelParams, spec PayoffSpec, discountFactor float64, mode GreeksMode) (GreeksResult, error) {
	return p.PriceWithGreeksBumped(params, spec, discountFactor, mode, DefaultBumpConfig())
}

// PriceWithGreeksBumped is PriceWithGreeks with explicit bump sizes.
func (p *MonteCarloPricer) PriceWithGreeksBumped(params ModelParams, spec PayoffSpec, discountFactor float64, mode GreeksMode, bumps BumpConfig) (GreeksResult, error) {
	resolved, err := mode.Resolve()
	if err != nil {
		return GreeksResult{}, err
	}
	if err := bumps.Validate(); err != nil {
		return GreeksResult{}, err
	}

	switch resolved {
	case ModeFiniteDifference:
		return p.finiteDifferenceGreeks(params, spec, discountFactor, bumps)
	case ModeForward:
		if IsPathDependent(spec) {
			// Tangent contraction needs a terminal-price payoff; path
			// statistics take the bump-and-revalue path instead.
			logrus.Debugf("greeks: forward mode on a path-dependent payoff, using finite difference")
			return p.finiteDifferenceGreeks(params, spec, discountFactor, bumps)
		}
		base, delta, err := p.PriceWithDeltaAD(params, spec, discountFactor)
		if err != nil {
			return GreeksResult{}, err
		}
		// One sensitivity direction per pass: forward mode fills Delta only.
		return GreeksResult{
			PricingResult: base,
			Greeks:        Greeks{Delta: delta},
			Mode:          ModeForward,
		}, nil
	default:
		return GreeksResult{}, fmt.Errorf("%w: resolved mode %s has no dispatcher", ErrInvalidConfig, resolved)
	}
}

// finiteDifferenceGreeks computes the full Greek set by bump-and-revalue
// under common random numbers: the pre-bump seed is captured once and every
// re-pricing starts from ResetWithSeed(seed), so all compared runs consume
// an identical draw sequence and Monte Carlo noise cancels by construction.
//
// Delta and Vega and Rho use central differences; Gamma reuses the
// down/mid/up spot prices; Theta uses a one-sided difference against a
// shortened maturity.
func (p *MonteCarloPricer) finiteDifferenceGreeks(params ModelParams, spec PayoffSpec, discountFactor float64, bumps BumpConfig) (GreeksResult, error) {
	seed := p.stream.Seed()
	reprice := func(bumped ModelParams, df float64) (PricingResult, error) {
		p.ResetWithSeed(seed)
		return p.PriceEuropean(bumped, spec, df)
	}

	base, err := reprice(params, discountFactor)
	if err != nil {
		return GreeksResult{}, err
	}

	var greeks Greeks

	// Delta and Gamma share the spot-bumped prices.
	hS := bumps.SpotRel * params.Spot
	up, down := params, params
	up.Spot += hS
	down.Spot -= hS
	priceUp, err := reprice(up, discountFactor)
	if err != nil {
		return GreeksResult{}, err
	}
	priceDown, err := reprice(down, discountFactor)
	if err != nil {
		return GreeksResult{}, err
	}
	greeks.Delta = (priceUp.Price - priceDown.Price) / (2 * hS)
	greeks.Gamma = (priceUp.Price - 2*base.Price + priceDown.Price) / (hS * hS)

	// Vega: central difference in volatility.
	hV := bumps.VolAbs
	volUp, volDown := params, params
	volUp.Volatility += hV
	volDown.Volatility -= hV
	vUp, err := reprice(volUp, discountFactor)
	if err != nil {
		return GreeksResult{}, err
	}
	vDown, err := reprice(volDown, discountFactor)
	if err != nil {
		return GreeksResult{}, err
	}
	greeks.Vega = (vUp.Price - vDown.Price) / (2 * hV)

	// Rho: central difference in rate. The supplied discount factor is
	// adjusted arithmetically for the parallel rate bump; no curve lookup.
	hR := bumps.RateAbs
	rateUp, rateDown := params, params
	rateUp.Rate += hR
	rateDown.Rate -= hR
	rUp, err := reprice(rateUp, discountFactor*math.Exp(-hR*params.Maturity))
	if err != nil {
		return GreeksResult{}, err
	}
	rDown, err := reprice(rateDown, discountFactor*math.Exp(hR*params.Maturity))
	if err != nil {
		return GreeksResult{}, err
	}
	greeks.Rho = (rUp.Price - rDown.Price) / (2 * hR)

	// Theta: one-sided difference against a shortened maturity.
	dtYears := bumps.ThetaDays / 365.0
	short := params
	short.Maturity = params.Maturity - dtYears
	if short.Maturity > 0 {
		sPrice, err := reprice(short, discountFactor*math.Exp(params.Rate*dtYears))
		if err != nil {
			return GreeksResult{}, err
		}
		greeks.Theta = (sPrice.Price - base.Price) / dtYears
	}

	// Leave the stream where common-random-number callers expect it.
	p.ResetWithSeed(seed)

	return GreeksResult{
		PricingResult: base,
		Greeks:        greeks,
		Mode:          ModeFiniteDifference,
	}, nil
}

// PriceWithDeltaAD prices the payoff and computes Delta by forward-mode
// tangent propagation in a single pass: a tangent seeded at 1 in the spot
// direction is evolved multiplicatively alongside each primal path and then
// contracted with the scalar payoff derivative at the terminal price. The
// pass consumes the same draws the primal pricing would, in the same
// path-major order.
//
// The multiplicative tangent update assumes the step function is
// homogeneous of degree one in price, which holds for geometric models.
// Terminal payoffs only: path-dependent specs (IsPathDependent) are
// rejected, since evaluating them at the terminal price would price a
// different instrument.
func (p *MonteCarloPricer) PriceWithDeltaAD(params ModelParams, spec PayoffSpec, discountFactor float64) (PricingResult, float64, error) {
	if p.step == nil {
		return PricingResult{}, 0, fmt.Errorf("%w: step function is required for forward-mode greeks", ErrInvalidConfig)
	}
	if IsPathDependent(spec) {
		return PricingResult{}, 0, fmt.Errorf("%w: forward-mode greeks require a terminal payoff", ErrInvalidConfig)
	}

	nPaths, nSteps := p.cfg.Paths, p.cfg.Steps
	p.ws.EnsureCapacity(nPaths, nSteps)
	dt := params.Maturity / float64(nSteps)

	// Payoff derivative via a tight central difference of the scalar payoff.
	hPay := 1e-4 * params.Spot
	payoffDeriv := func(terminal float64) float64 {
		return (spec.Evaluate(terminal+hPay) - spec.Evaluate(terminal-hPay)) / (2 * hPay)
	}

	var deltaSum float64
	for path := 0; path < nPaths; path++ {
		price := params.Spot
		tangent := 1.0
		for step := 0; step < nSteps; step++ {
			z := p.stream.Next()
			next := p.step(price, params, dt, z)
			tangent *= next / price
			price = next
		}
		p.ws.SetPayoff(path, spec.Evaluate(price))
		deltaSum += payoffDeriv(price) * tangent
	}
	p.Metrics.DrawsConsumed += uint64(nPaths) * uint64(nSteps)

	result, err := discountedMean(p.ws.Payoffs(), discountFactor)
	if err != nil {
		return PricingResult{}, 0, err
	}
	p.Metrics.Pricings++
	p.Metrics.PathsSimulated += int64(nPaths)

	delta := discountFactor * deltaSum / float64(nPaths)
	return result, delta, nil
}
