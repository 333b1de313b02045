package pricing

import (
	"fmt"
	"math"
)

// Request holds the model parameters for a single European option valuation.
// TimeToMaturity is a year fraction (act/365). Volatility and rates are
// annualised decimals. DividendYield is a continuous yield, zero for
// non-dividend underlyings.
type Request struct {
	Spot           float64
	Strike         float64
	TimeToMaturity float64
	Volatility     float64
	RiskFreeRate   float64
	DividendYield  float64
}

// Result carries the theoretical prices and Greeks for both option types of
// one Request. Greeks are raw partial derivatives: vega per unit volatility,
// rho per unit rate, theta per year (negative while the option bleeds value).
type Result struct {
	CallPrice float64
	PutPrice  float64

	DeltaCall float64
	DeltaPut  float64
	Gamma     float64
	Vega      float64
	ThetaCall float64
	ThetaPut  float64
	RhoCall   float64
	RhoPut    float64
}

// ValidationError reports a request field that violates the model's domain.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the Request invariants without computing anything.
func (r Request) Validate() error {
	switch {
	case r.Spot <= 0 || math.IsNaN(r.Spot) || math.IsInf(r.Spot, 0):
		return &ValidationError{Field: "spot", Reason: "must be a positive finite number"}
	case r.Strike <= 0 || math.IsNaN(r.Strike) || math.IsInf(r.Strike, 0):
		return &ValidationError{Field: "strike", Reason: "must be a positive finite number"}
	case r.TimeToMaturity <= 0 || math.IsNaN(r.TimeToMaturity) || math.IsInf(r.TimeToMaturity, 0):
		return &ValidationError{Field: "time_to_maturity", Reason: "must be a positive finite year fraction"}
	case r.Volatility <= 0 || math.IsNaN(r.Volatility) || math.IsInf(r.Volatility, 0):
		return &ValidationError{Field: "volatility", Reason: "must be a positive finite number"}
	case math.IsNaN(r.RiskFreeRate) || math.IsInf(r.RiskFreeRate, 0):
		return &ValidationError{Field: "risk_free_rate", Reason: "must be finite"}
	case r.DividendYield < 0 || math.IsNaN(r.DividendYield) || math.IsInf(r.DividendYield, 0):
		return &ValidationError{Field: "dividend_yield", Reason: "must be a non-negative finite number"}
	}
	return nil
}

// Below this total volatility the lognormal density collapses onto the
// forward and d1/d2 overflow; prices degrade to discounted intrinsic value.
const minTotalVol = 1e-9

// Price evaluates the Black-Scholes closed form for the given request. It is
// pure and deterministic; the only failure mode is a *ValidationError.
func Price(req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	var (
		s     = req.Spot
		k     = req.Strike
		t     = req.TimeToMaturity
		sigma = req.Volatility
		r     = req.RiskFreeRate
		q     = req.DividendYield
	)

	discR := math.Exp(-r * t)
	discQ := math.Exp(-q * t)
	sqrtT := math.Sqrt(t)
	totalVol := sigma * sqrtT

	if totalVol < minTotalVol {
		return degenerate(s, k, t, r, q, discR, discQ), nil
	}

	d1 := (math.Log(s/k) + (r-q+0.5*sigma*sigma)*t) / totalVol
	d2 := d1 - totalVol

	nd1 := normCDF(d1)
	nd2 := normCDF(d2)
	pd1 := normPDF(d1)

	res := Result{
		CallPrice: s*discQ*nd1 - k*discR*nd2,
		PutPrice:  k*discR*normCDF(-d2) - s*discQ*normCDF(-d1),

		DeltaCall: discQ * nd1,
		DeltaPut:  -discQ * normCDF(-d1),
		Gamma:     discQ * pd1 / (s * totalVol),
		Vega:      s * discQ * pd1 * sqrtT,
		ThetaCall: -s*discQ*pd1*sigma/(2*sqrtT) - r*k*discR*nd2 + q*s*discQ*nd1,
		ThetaPut:  -s*discQ*pd1*sigma/(2*sqrtT) + r*k*discR*normCDF(-d2) - q*s*discQ*normCDF(-d1),
		RhoCall:   k * t * discR * nd2,
		RhoPut:    -k * t * discR * normCDF(-d2),
	}

	// Closed-form values can dip a few ulps below zero far out of the money.
	res.CallPrice = math.Max(res.CallPrice, 0)
	res.PutPrice = math.Max(res.PutPrice, 0)

	return res, nil
}

// degenerate evaluates the vanishing-variance limit: the option is worth its
// discounted intrinsic value and delta is a step on the forward moneyness.
func degenerate(s, k, t, r, q, discR, discQ float64) Result {
	fwdCall := math.Max(s*discQ-k*discR, 0)
	fwdPut := math.Max(k*discR-s*discQ, 0)

	res := Result{
		CallPrice: fwdCall,
		PutPrice:  fwdPut,
	}
	if s*discQ > k*discR {
		res.DeltaCall = discQ
		res.ThetaCall = q*s*discQ - r*k*discR
		res.RhoCall = k * t * discR
	} else {
		res.DeltaPut = -discQ
		res.ThetaPut = r*k*discR - q*s*discQ
		res.RhoPut = -k * t * discR
	}
	return res
}

const invSqrt2Pi = 0.3989422804014327

// normCDF is the standard normal cumulative distribution, evaluated through
// the error function for full double precision accuracy.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return invSqrt2Pi * math.Exp(-0.5*x*x)
}
