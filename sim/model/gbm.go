// Package model provides path-generation routines for the pricing engine.
// The only model currently implemented is risk-neutral geometric Brownian
// motion; the engine consumes it through the sim package's function types,
// so further models plug in without engine changes.
package model

import (
	"math"

	sim "github.com/pricing-sim/pricing-sim/sim"
)

// GBMStep advances one price by a single time step of risk-neutral GBM:
//
//	S' = S * exp((r - sigma^2/2) dt + sigma sqrt(dt) z)
func GBMStep(price float64, params sim.ModelParams, dt, z float64) float64 {
	drift := (params.Rate - 0.5*params.Volatility*params.Volatility) * dt
	return price * math.Exp(drift+params.Volatility*math.Sqrt(dt)*z)
}

// GeneratePaths writes full GBM price paths into the workspace path buffer,
// consuming the already filled random buffer. Column 0 of each path row is
// the spot price.
func GeneratePaths(ws *sim.SimulationWorkspace, params sim.ModelParams, nPaths, nSteps int) {
	dt := params.Maturity / float64(nSteps)
	driftTerm := (params.Rate - 0.5*params.Volatility*params.Volatility) * dt
	volTerm := params.Volatility * math.Sqrt(dt)

	for path := 0; path < nPaths; path++ {
		randoms := ws.RandomRow(path)
		prices := ws.PathRow(path)
		prices[0] = params.Spot
		for step := 1; step <= nSteps; step++ {
			prices[step] = prices[step-1] * math.Exp(driftTerm+volTerm*randoms[step-1])
		}
	}
}

// GenerateTerminal writes only terminal prices (repeated path-buffer column
// writes skipped): the terminal of a GBM path depends on the sum of its
// draws, so for purely terminal payoffs the intermediate columns are not
// needed. The path buffer still receives spot in column 0 and the terminal
// in the last column so payoff evaluators read a consistent shape.
func GenerateTerminal(ws *sim.SimulationWorkspace, params sim.ModelParams, nPaths, nSteps int) {
	dt := params.Maturity / float64(nSteps)
	driftTerm := (params.Rate - 0.5*params.Volatility*params.Volatility) * dt
	volTerm := params.Volatility * math.Sqrt(dt)

	for path := 0; path < nPaths; path++ {
		randoms := ws.RandomRow(path)
		var zSum float64
		for _, z := range randoms {
			zSum += z
		}
		terminal := params.Spot * math.Exp(float64(nSteps)*driftTerm+volTerm*zSum)
		ws.SetPrice(path, 0, params.Spot)
		ws.SetPrice(path, nSteps, terminal)
	}
}
