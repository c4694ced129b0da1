package fx

import (
	"fmt"
	"math"

	"github.com/devnone21/xtb-trade/internal/indicator"
	"github.com/devnone21/xtb-trade/internal/model"
)

// macdCross opens on MACD/signal-line crossovers: crossing above opens a
// BUY, crossing below opens a SELL. Like the EMA family it never emits
// CLOSE; an opposite OPEN retires the prior leg.
type macdCross struct {
	fast   int
	slow   int
	signal int
}

func newMacdCross(p Preset) (*macdCross, error) {
	if p.Fast <= 0 || p.Slow <= 0 || p.Signal <= 0 || p.Fast >= p.Slow {
		return nil, fmt.Errorf("fx: macd preset needs 0 < fast < slow and positive signal, got fast=%d slow=%d signal=%d",
			p.Fast, p.Slow, p.Signal)
	}
	return &macdCross{fast: p.Fast, slow: p.Slow, signal: p.Signal}, nil
}

func (m *macdCross) Name() string { return "macd" }

func (m *macdCross) Evaluate(candles []model.Candle) []model.Signal {
	macd, signalLine := indicator.MACD(indicator.Closes(candles), m.fast, m.slow, m.signal)
	above := indicator.CrossSeriesAbove(macd, signalLine)
	below := indicator.CrossSeriesBelow(macd, signalLine)

	var signals []model.Signal
	for i := 1; i < len(candles); i++ {
		if math.IsNaN(macd[i-1]) || math.IsNaN(signalLine[i-1]) ||
			math.IsNaN(macd[i]) || math.IsNaN(signalLine[i]) {
			continue
		}
		switch {
		case above[i]:
			signals = append(signals, signalAt(candles[i], model.ActionOpen, model.DirBuy))
		case below[i]:
			signals = append(signals, signalAt(candles[i], model.ActionOpen, model.DirSell))
		default:
			signals = append(signals, stay(candles[i]))
		}
	}
	return signals
}
