package indicator

// EMA computes an exponential moving average seeded with an SMA over the
// first length values, then the standard 2/(length+1) multiplier recurrence.
// The first length-1 values are NaN.
func EMA(values []float64, length int) []float64 {
	out := nanSlice(len(values))
	if length <= 0 || len(values) < length {
		return out
	}

	mult := 2.0 / float64(length+1)

	sum := 0.0
	for i := 0; i < length; i++ {
		sum += values[i]
	}
	out[length-1] = sum / float64(length)

	for i := length; i < len(values); i++ {
		out[i] = values[i]*mult + out[i-1]*(1-mult)
	}
	return out
}
