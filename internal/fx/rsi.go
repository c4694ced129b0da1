package fx

import (
	"fmt"
	"math"

	"github.com/devnone21/xtb-trade/internal/indicator"
	"github.com/devnone21/xtb-trade/internal/model"
)

// rsiCross classifies RSI threshold crossings.
//
// Each bar carries two flags: A (RSI crossed above the upper threshold) and
// B (RSI crossed below the lower threshold). Together with the previous
// bar's flags they form a 4-bit pattern (A_prev, B_prev, A_now, B_now):
//
//	exactly one bit set  -> OPEN, BUY when the set bit is a B bit, else SELL
//	0110                 -> CLOSE/BUY
//	1001                 -> CLOSE/SELL
//	anything else        -> STAY/NONE
type rsiCross struct {
	length int
	xa     float64
	xb     float64
}

func newRsiCross(p Preset) (*rsiCross, error) {
	if p.Length <= 0 {
		return nil, fmt.Errorf("fx: rsi preset needs positive length, got %d", p.Length)
	}
	if p.XA <= p.XB {
		return nil, fmt.Errorf("fx: rsi preset needs xa > xb, got xa=%v xb=%v", p.XA, p.XB)
	}
	return &rsiCross{length: p.Length, xa: p.XA, xb: p.XB}, nil
}

func (r *rsiCross) Name() string { return "rsi" }

func (r *rsiCross) Evaluate(candles []model.Candle) []model.Signal {
	rsi := indicator.RSI(indicator.Closes(candles), r.length)
	above := indicator.CrossAbove(rsi, r.xa)
	below := indicator.CrossBelow(rsi, r.xb)

	var signals []model.Signal
	for i := 1; i < len(candles); i++ {
		// Flags at i-1 and i both need a defined RSI one bar earlier.
		if i < 2 || math.IsNaN(rsi[i-2]) || math.IsNaN(rsi[i-1]) || math.IsNaN(rsi[i]) {
			continue
		}
		action, dir := classifyRsiBits(above[i-1], below[i-1], above[i], below[i])
		signals = append(signals, signalAt(candles[i], action, dir))
	}
	return signals
}

// classifyRsiBits is the full decision table over (A_prev, B_prev, A_now,
// B_now), not a heuristic; every one of the 16 patterns maps through here.
func classifyRsiBits(aPrev, bPrev, aNow, bNow bool) (model.Action, model.Direction) {
	count := 0
	for _, b := range [4]bool{aPrev, bPrev, aNow, bNow} {
		if b {
			count++
		}
	}
	if count == 1 {
		if bPrev || bNow {
			return model.ActionOpen, model.DirBuy
		}
		return model.ActionOpen, model.DirSell
	}
	if !aPrev && bPrev && aNow && !bNow { // 0110
		return model.ActionClose, model.DirBuy
	}
	if aPrev && !bPrev && !aNow && bNow { // 1001
		return model.ActionClose, model.DirSell
	}
	return model.ActionStay, model.DirNone
}
