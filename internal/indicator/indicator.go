// Package indicator provides technical indicator calculations over candle
// series.
//
// Every indicator is a pure series transform: it consumes a slice of values
// and produces a new slice of the same length, marking the warm-up period
// with NaN. Callers drop NaN rows before classifying; nothing here mutates
// its input.
package indicator

import (
	"math"

	"github.com/devnone21/xtb-trade/internal/model"
)

// Closes extracts the close column from a candle series.
func Closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}

// SMA computes a simple moving average. The first length-1 values are NaN.
func SMA(values []float64, length int) []float64 {
	out := nanSlice(len(values))
	if length <= 0 || len(values) < length {
		return out
	}
	sum := 0.0
	for i, v := range values {
		if math.IsNaN(v) {
			// Propagate the input's own warm-up
			return smaSkipNaN(values, length)
		}
		sum += v
		if i >= length {
			sum -= values[i-length]
		}
		if i >= length-1 {
			out[i] = sum / float64(length)
		}
	}
	return out
}

// smaSkipNaN is SMA over a series with a leading NaN warm-up region.
func smaSkipNaN(values []float64, length int) []float64 {
	out := nanSlice(len(values))
	start := firstValid(values)
	if start < 0 || len(values)-start < length {
		return out
	}
	sum := 0.0
	for i := start; i < len(values); i++ {
		sum += values[i]
		if i >= start+length {
			sum -= values[i-length]
		}
		if i >= start+length-1 {
			out[i] = sum / float64(length)
		}
	}
	return out
}

// firstValid returns the index of the first non-NaN value, or -1.
func firstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
