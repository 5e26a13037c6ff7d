// Package finance holds the cash-flow arithmetic behind the deal tool.
package finance

import (
	"errors"
	"math"

	"github.com/alpeb/go-finance/fin"
)

// ErrNoIRR is returned when no rate zeroes the net present value, either
// because the flows never change sign or because the solver did not converge.
var ErrNoIRR = errors.New("irr: no real solution")

const (
	irrTolerance = 1e-10
	irrMaxIter   = 200
	irrGuess     = 0.1
	minRate      = -0.9999
	maxRate      = 1e3
)

// NPV discounts flows at rate, the first flow being at period 0.
func NPV(rate float64, flows []float64) float64 {
	total := 0.0
	factor := 1.0
	for _, cf := range flows {
		total += cf / factor
		factor *= 1 + rate
	}
	return total
}

func npvDerivative(rate float64, flows []float64) float64 {
	total := 0.0
	for t, cf := range flows {
		if t == 0 {
			continue
		}
		total -= float64(t) * cf / math.Pow(1+rate, float64(t+1))
	}
	return total
}

// IRR solves NPV(r) = 0 for the periodic rate r. The go-finance solver
// supplies the first estimate. Plain Newton from a fixed guess can overshoot
// below -100% on deep losses, so the estimate is only kept when it lands
// inside the bracket, and the result is refined with bracketed Newton steps
// that bisect whenever a step would leave the bracket.
func IRR(flows []float64) (float64, error) {
	if len(flows) < 2 || !hasSignChange(flows) {
		return math.NaN(), ErrNoIRR
	}
	for _, cf := range flows {
		if math.IsNaN(cf) || math.IsInf(cf, 0) {
			return math.NaN(), ErrNoIRR
		}
	}

	lo, hi := minRate, maxRate
	fLo, fHi := NPV(lo, flows), NPV(hi, flows)
	if math.Signbit(fLo) == math.Signbit(fHi) {
		return math.NaN(), ErrNoIRR
	}

	rate := irrGuess
	if r, err := fin.InternalRateOfReturn(flows, irrGuess); err == nil && r > lo && r < hi {
		rate = r
	}
	for i := 0; i < irrMaxIter; i++ {
		f := NPV(rate, flows)
		if math.Abs(f) < irrTolerance {
			return rate, nil
		}
		if math.Signbit(f) == math.Signbit(fLo) {
			lo, fLo = rate, f
		} else {
			hi = rate
		}

		next := math.NaN()
		if d := npvDerivative(rate, flows); d != 0 {
			next = rate - f/d
		}
		if math.IsNaN(next) || next <= lo || next >= hi {
			next = (lo + hi) / 2
		}
		if math.Abs(next-rate) < irrTolerance {
			return next, nil
		}
		rate = next
	}
	return math.NaN(), ErrNoIRR
}

// MOIC is total proceeds (periodic inflows plus exit value) over the outlay.
func MOIC(inflows []float64, exit, outlay float64) float64 {
	if outlay == 0 {
		return math.NaN()
	}
	total := exit
	for _, cf := range inflows {
		total += cf
	}
	return total / outlay
}

func hasSignChange(flows []float64) bool {
	pos, neg := false, false
	for _, cf := range flows {
		if cf > 0 {
			pos = true
		} else if cf < 0 {
			neg = true
		}
	}
	return pos && neg
}
