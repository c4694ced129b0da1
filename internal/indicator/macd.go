package indicator

import "math"

// MACD computes the moving average convergence/divergence line and its
// signal line. The MACD line is EMA(fast) - EMA(slow); the signal line is an
// EMA of the MACD line. Warm-up values are NaN.
func MACD(values []float64, fast, slow, signal int) (macd, signalLine []float64) {
	macd = nanSlice(len(values))
	signalLine = nanSlice(len(values))

	emaFast := EMA(values, fast)
	emaSlow := EMA(values, slow)
	for i := range values {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) {
			continue
		}
		macd[i] = emaFast[i] - emaSlow[i]
	}

	start := firstValid(macd)
	if start < 0 || len(macd)-start < signal {
		return macd, signalLine
	}
	seeded := EMA(macd[start:], signal)
	copy(signalLine[start:], seeded)
	return macd, signalLine
}
