package indicator

// RSI computes the Relative Strength Index using Wilder's smoothing with an
// SMA seed. The first length values are NaN; the first defined value sits at
// index length.
func RSI(values []float64, length int) []float64 {
	out := nanSlice(len(values))
	if length <= 0 || len(values) <= length {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= length; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(length)
	avgLoss /= float64(length)
	out[length] = rsiValue(avgGain, avgLoss)

	p := float64(length)
	for i := length + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
