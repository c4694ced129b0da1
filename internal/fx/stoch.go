package fx

import (
	"fmt"
	"math"

	"github.com/devnone21/xtb-trade/internal/indicator"
	"github.com/devnone21/xtb-trade/internal/model"
)

// stochCross classifies stochastic %K threshold patterns plus %K/%D
// crossovers.
//
// The 4-bit pattern works like the RSI family's, taken over smoothed %K:
//
//	0001, 1000, 1001         -> CLOSE/BUY
//	0010, 0100, 0110         -> CLOSE/SELL
//	0101 with a %K/%D cross  -> OPEN/BUY
//	1010 with a %K/%D cross  -> OPEN/SELL
//	anything else            -> STAY/NONE
//
// A genuine cross means the sign of %K-%D differs between the two bars.
type stochCross struct {
	k       int
	d       int
	smoothK int
	xa      float64
	xb      float64
}

func newStochCross(p Preset) (*stochCross, error) {
	if p.K <= 0 || p.D <= 0 || p.SmoothK <= 0 {
		return nil, fmt.Errorf("fx: stoch preset needs positive k/d/smooth_k, got k=%d d=%d smooth_k=%d",
			p.K, p.D, p.SmoothK)
	}
	return &stochCross{k: p.K, d: p.D, smoothK: p.SmoothK, xa: p.XA, xb: p.XB}, nil
}

func (s *stochCross) Name() string { return "stoch" }

func (s *stochCross) Evaluate(candles []model.Candle) []model.Signal {
	k, d := indicator.Stoch(candles, s.k, s.d, s.smoothK)
	above := indicator.CrossAbove(k, s.xa)
	below := indicator.CrossBelow(k, s.xb)

	var signals []model.Signal
	for i := 1; i < len(candles); i++ {
		if i < 2 || math.IsNaN(k[i-2]) || math.IsNaN(k[i-1]) || math.IsNaN(k[i]) ||
			math.IsNaN(d[i-1]) || math.IsNaN(d[i]) {
			continue
		}
		kdCross := (k[i-1]-d[i-1])*(k[i]-d[i]) < 0
		action, dir := classifyStochBits(above[i-1], below[i-1], above[i], below[i], kdCross)
		signals = append(signals, signalAt(candles[i], action, dir))
	}
	return signals
}

func classifyStochBits(aPrev, bPrev, aNow, bNow, kdCross bool) (model.Action, model.Direction) {
	switch pattern(aPrev, bPrev, aNow, bNow) {
	case "0001", "1000", "1001":
		return model.ActionClose, model.DirBuy
	case "0010", "0100", "0110":
		return model.ActionClose, model.DirSell
	case "0101":
		if kdCross {
			return model.ActionOpen, model.DirBuy
		}
	case "1010":
		if kdCross {
			return model.ActionOpen, model.DirSell
		}
	}
	return model.ActionStay, model.DirNone
}

func pattern(bits ...bool) string {
	buf := make([]byte, len(bits))
	for i, b := range bits {
		if b {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}
