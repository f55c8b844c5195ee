package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualises daily statistics.
const TradingDaysPerYear = 252

// SimpleReturns computes r_t = P_t/P_{t-1} - 1. The second result is false
// when a non-positive or non-finite price makes a return undefined.
func SimpleReturns(prices []float64) ([]float64, bool) {
	if len(prices) < 2 {
		return nil, false
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || !isFinite(prev) || !isFinite(cur) {
			return nil, false
		}
		out = append(out, cur/prev-1)
	}
	return out, true
}

// RealizedVolatility is the annualised sample stdev of the last window
// returns. Returns 0 when fewer than window returns exist.
func RealizedVolatility(returns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(returns) < window {
		return 0
	}
	sd := stat.StdDev(returns[len(returns)-window:], nil)
	if !isFinite(sd) {
		return 0
	}
	return sd * math.Sqrt(barsPerYear)
}

// MaxDrawdown is the largest peak-to-trough decline of the compounded
// return curve, as a positive fraction.
func MaxDrawdown(returns []float64) float64 {
	equity, peak, worst := 1.0, 1.0, 0.0
	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
