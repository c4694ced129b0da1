package indicator

import (
	"math"

	"github.com/devnone21/xtb-trade/internal/model"
)

// Stoch computes the stochastic oscillator over a candle series.
// Raw %K looks back k bars over the high/low range, smoothed by an SMA of
// smoothK; %D is an SMA of d over the smoothed %K. Warm-up values are NaN.
func Stoch(candles []model.Candle, k, d, smoothK int) (kOut, dOut []float64) {
	rawK := nanSlice(len(candles))
	if k <= 0 || len(candles) < k {
		return rawK, nanSlice(len(candles))
	}

	for i := k - 1; i < len(candles); i++ {
		hh := math.Inf(-1)
		ll := math.Inf(1)
		for j := i - k + 1; j <= i; j++ {
			if candles[j].High > hh {
				hh = candles[j].High
			}
			if candles[j].Low < ll {
				ll = candles[j].Low
			}
		}
		if hh == ll {
			// Flat window: park the oscillator mid-range
			rawK[i] = 50.0
			continue
		}
		rawK[i] = 100.0 * (candles[i].Close - ll) / (hh - ll)
	}

	kOut = SMA(rawK, smoothK)
	dOut = SMA(kOut, d)
	return kOut, dOut
}
