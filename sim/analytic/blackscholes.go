// Package analytic provides closed-form Black-Scholes prices and Greeks for
// European options. The engine uses it as the numeric reference that
// finite-difference and forward-mode Monte Carlo sensitivities must agree
// with within tolerance.
package analytic

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.UnitNormal

func normCDF(x float64) float64 { return stdNormal.CDF(x) }

func normPDF(x float64) float64 { return stdNormal.Prob(x) }

func d1d2(spot, strike, rate, vol, maturity float64) (float64, float64) {
	d1 := (math.Log(spot/strike) + (rate+0.5*vol*vol)*maturity) / (vol * math.Sqrt(maturity))
	return d1, d1 - vol*math.Sqrt(maturity)
}

// CallPrice returns the Black-Scholes price of a European call.
// Expiry and zero-volatility edge cases degrade to intrinsic value.
func CallPrice(spot, strike, rate, vol, maturity float64) float64 {
	if maturity == 0 {
		return math.Max(spot-strike, 0)
	}
	if vol == 0 {
		return math.Max(spot-strike*math.Exp(-rate*maturity), 0)
	}
	d1, d2 := d1d2(spot, strike, rate, vol, maturity)
	return spot*normCDF(d1) - strike*math.Exp(-rate*maturity)*normCDF(d2)
}

// PutPrice returns the Black-Scholes price of a European put.
func PutPrice(spot, strike, rate, vol, maturity float64) float64 {
	if maturity == 0 {
		return math.Max(strike-spot, 0)
	}
	if vol == 0 {
		return math.Max(strike*math.Exp(-rate*maturity)-spot, 0)
	}
	d1, d2 := d1d2(spot, strike, rate, vol, maturity)
	return strike*math.Exp(-rate*maturity)*normCDF(-d2) - spot*normCDF(-d1)
}

// CallDelta returns dPrice/dSpot for a European call.
func CallDelta(spot, strike, rate, vol, maturity float64) float64 {
	d1, _ := d1d2(spot, strike, rate, vol, maturity)
	return normCDF(d1)
}

// PutDelta returns dPrice/dSpot for a European put.
func PutDelta(spot, strike, rate, vol, maturity float64) float64 {
	d1, _ := d1d2(spot, strike, rate, vol, maturity)
	return normCDF(d1) - 1
}

// Gamma returns d2Price/dSpot2, identical for calls and puts.
func Gamma(spot, strike, rate, vol, maturity float64) float64 {
	d1, _ := d1d2(spot, strike, rate, vol, maturity)
	return normPDF(d1) / (spot * vol * math.Sqrt(maturity))
}

// Vega returns dPrice/dVolatility, identical for calls and puts.
func Vega(spot, strike, rate, vol, maturity float64) float64 {
	d1, _ := d1d2(spot, strike, rate, vol, maturity)
	return spot * math.Sqrt(maturity) * normPDF(d1)
}

// CallTheta returns dPrice/dTime (calendar decay) for a European call.
func CallTheta(spot, strike, rate, vol, maturity float64) float64 {
	d1, d2 := d1d2(spot, strike, rate, vol, maturity)
	return -spot*normPDF(d1)*vol/(2*math.Sqrt(maturity)) -
		rate*strike*math.Exp(-rate*maturity)*normCDF(d2)
}

// PutTheta returns dPrice/dTime for a European put.
func PutTheta(spot, strike, rate, vol, maturity float64) float64 {
	d1, d2 := d1d2(spot, strike, rate, vol, maturity)
	return -spot*normPDF(d1)*vol/(2*math.Sqrt(maturity)) +
		rate*strike*math.Exp(-rate*maturity)*normCDF(-d2)
}

// CallRho returns dPrice/dRate for a European call.
func CallRho(spot, strike, rate, vol, maturity float64) float64 {
	_, d2 := d1d2(spot, strike, rate, vol, maturity)
	return strike * maturity * math.Exp(-rate*maturity) * normCDF(d2)
}

// PutRho returns dPrice/dRate for a European put.
func PutRho(spot, strike, rate, vol, maturity float64) float64 {
	_, d2 := d1d2(spot, strike, rate, vol, maturity)
	return -strike * maturity * math.Exp(-rate*maturity) * normCDF(-d2)
}
