package fx

import (
	"fmt"
	"math"

	"github.com/devnone21/xtb-trade/internal/indicator"
	"github.com/devnone21/xtb-trade/internal/model"
)

// emaCross detects fast/slow EMA crossovers.
//
// A flip from fast>slow to fast<slow opens a SELL; the opposite flip opens a
// BUY. The family never emits CLOSE: an opposite-direction OPEN implicitly
// closes the prior leg, which the orchestrator enforces.
type emaCross struct {
	fast int
	slow int
}

func newEmaCross(p Preset) (*emaCross, error) {
	if p.Fast <= 0 || p.Slow <= 0 || p.Fast >= p.Slow {
		return nil, fmt.Errorf("fx: emax preset needs 0 < fast < slow, got fast=%d slow=%d", p.Fast, p.Slow)
	}
	return &emaCross{fast: p.Fast, slow: p.Slow}, nil
}

func (e *emaCross) Name() string { return "emax" }

func (e *emaCross) Evaluate(candles []model.Candle) []model.Signal {
	closes := indicator.Closes(candles)
	fast := indicator.EMA(closes, e.fast)
	slow := indicator.EMA(closes, e.slow)

	var signals []model.Signal
	for i := 1; i < len(candles); i++ {
		f1, s1 := fast[i-1], slow[i-1]
		f2, s2 := fast[i], slow[i]
		if math.IsNaN(f1) || math.IsNaN(s1) || math.IsNaN(f2) || math.IsNaN(s2) {
			continue
		}
		switch {
		case f1 > s1 && f2 < s2:
			signals = append(signals, signalAt(candles[i], model.ActionOpen, model.DirSell))
		case f1 < s1 && f2 > s2:
			signals = append(signals, signalAt(candles[i], model.ActionOpen, model.DirBuy))
		default:
			signals = append(signals, stay(candles[i]))
		}
	}
	return signals
}
