package indicator

import "math"

// CrossAbove marks bars where the series crosses up through level:
// previous value at or below, current value strictly above. Bars without a
// defined previous value are false.
func CrossAbove(values []float64, level float64) []bool {
	out := make([]bool, len(values))
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if math.IsNaN(prev) || math.IsNaN(cur) {
			continue
		}
		out[i] = prev <= level && cur > level
	}
	return out
}

// CrossBelow marks bars where the series crosses down through level:
// previous value at or above, current value strictly below.
func CrossBelow(values []float64, level float64) []bool {
	out := make([]bool, len(values))
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if math.IsNaN(prev) || math.IsNaN(cur) {
			continue
		}
		out[i] = prev >= level && cur < level
	}
	return out
}

// CrossSeriesAbove marks bars where series a crosses up through series b.
func CrossSeriesAbove(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := 1; i < len(a) && i < len(b); i++ {
		if math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) || math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		out[i] = a[i-1] <= b[i-1] && a[i] > b[i]
	}
	return out
}

// CrossSeriesBelow marks bars where series a crosses down through series b.
func CrossSeriesBelow(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := 1; i < len(a) && i < len(b); i++ {
		if math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) || math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		out[i] = a[i-1] >= b[i-1] && a[i] < b[i]
	}
	return out
}
