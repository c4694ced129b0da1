package indicator

import (
	"math"
	"testing"

	"github.com/devnone21/xtb-trade/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := SMA(values, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Error("expected NaN warm-up for first 2 values")
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !almostEqual(out[i+2], w) {
			t.Errorf("SMA[%d]: expected %v, got %v", i+2, w, out[i+2])
		}
	}
}

func TestEMA_SeedAndRecurrence(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	out := EMA(values, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Error("expected NaN warm-up")
	}
	// Seed: SMA(10,20,30) = 20
	if !almostEqual(out[2], 20) {
		t.Errorf("seed: expected 20, got %v", out[2])
	}
	// mult = 2/4 = 0.5 → 40*0.5 + 20*0.5 = 30
	if !almostEqual(out[3], 30) {
		t.Errorf("recurrence: expected 30, got %v", out[3])
	}
}

func TestEMA_TooShort(t *testing.T) {
	out := EMA([]float64{1, 2}, 5)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("expected all NaN, got %v at %d", v, i)
		}
	}
}

func TestRSI_AllGains(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	out := RSI(values, 3)

	for i := 0; i < 3; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("expected NaN at %d, got %v", i, out[i])
		}
	}
	// Monotonic gains → zero average loss → RSI pinned at 100
	for i := 3; i < len(out); i++ {
		if !almostEqual(out[i], 100) {
			t.Errorf("expected RSI 100 at %d, got %v", i, out[i])
		}
	}
}

func TestRSI_FirstValueFromSeed(t *testing.T) {
	// Deltas: +2, -1, +2, -1 → with length 4: avgGain=1, avgLoss=0.5
	values := []float64{10, 12, 11, 13, 12}
	out := RSI(values, 4)

	// RS = 2 → RSI = 100 - 100/3
	want := 100.0 - 100.0/3.0
	if !almostEqual(out[4], want) {
		t.Errorf("expected %v, got %v", want, out[4])
	}
}

func TestStoch_Range(t *testing.T) {
	candles := make([]model.Candle, 30)
	for i := range candles {
		base := float64(100 + i%7)
		candles[i] = model.Candle{High: base + 1, Low: base - 1, Close: base}
	}
	k, d := Stoch(candles, 14, 3, 3)

	for i := range k {
		if math.IsNaN(k[i]) {
			continue
		}
		if k[i] < 0 || k[i] > 100 {
			t.Errorf("%%K out of range at %d: %v", i, k[i])
		}
	}
	if firstValid(d) <= firstValid(k) {
		t.Error("expected %D to warm up after %K")
	}
}

func TestMACD_CrossesZeroOnTrendFlip(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		if i < 30 {
			values[i] = float64(100 + i) // rising
		} else {
			values[i] = float64(160 - i) // falling
		}
	}
	macd, signal := MACD(values, 5, 10, 4)

	if firstValid(macd) < 0 || firstValid(signal) < 0 {
		t.Fatal("expected defined MACD and signal values")
	}
	last := len(values) - 1
	if !(macd[last] < 0) {
		t.Errorf("expected negative MACD after downtrend, got %v", macd[last])
	}
}

func TestCrossAboveBelow(t *testing.T) {
	values := []float64{65, 72, 68, 71, 69}
	above := CrossAbove(values, 70)
	below := CrossBelow(values, 70)

	wantAbove := []bool{false, true, false, true, false}
	wantBelow := []bool{false, false, true, false, true}
	for i := range values {
		if above[i] != wantAbove[i] {
			t.Errorf("above[%d]: expected %v", i, wantAbove[i])
		}
		if below[i] != wantBelow[i] {
			t.Errorf("below[%d]: expected %v", i, wantBelow[i])
		}
	}
}
