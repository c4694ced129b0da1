// Package fx classifies candle series into trading signals.
//
// Each indicator family is an Evaluator: a deterministic rule over each bar
// and its immediate predecessor, applied after indicator warm-up rows are
// dropped. Families are a fixed set selected by preset kind; adding one means
// adding a new Evaluator, without touching the candle store or the ledger.
package fx

import (
	"fmt"

	"github.com/devnone21/xtb-trade/internal/model"
)

// Preset holds the indicator parameters for one family. Unused fields stay
// zero; presets come from configuration by name.
type Preset struct {
	Kind    string  `json:"kind"` // "emax", "rsi", "stoch", "macd"
	Fast    int     `json:"fast,omitempty"`
	Slow    int     `json:"slow,omitempty"`
	Signal  int     `json:"signal,omitempty"`
	Length  int     `json:"length,omitempty"`
	K       int     `json:"k,omitempty"`
	D       int     `json:"d,omitempty"`
	SmoothK int     `json:"smooth_k,omitempty"`
	XA      float64 `json:"xa,omitempty"`
	XB      float64 `json:"xb,omitempty"`
}

// Evaluator applies one indicator family's classification rule to a decimal
// candle series. The returned signal series is shorter than the input: bars
// inside the warm-up period are never classified.
type Evaluator interface {
	Name() string
	Evaluate(candles []model.Candle) []model.Signal
}

// New builds the Evaluator for a preset. Unknown kinds are a configuration
// error, not a runtime condition.
func New(preset Preset) (Evaluator, error) {
	switch preset.Kind {
	case "emax":
		return newEmaCross(preset)
	case "rsi":
		return newRsiCross(preset)
	case "stoch":
		return newStochCross(preset)
	case "macd":
		return newMacdCross(preset)
	default:
		return nil, fmt.Errorf("fx: unknown indicator kind %q", preset.Kind)
	}
}

func signalAt(c model.Candle, action model.Action, dir model.Direction) model.Signal {
	return model.Signal{Ctm: c.Ctm, Action: action, Direction: dir, Price: c.Close}
}

func stay(c model.Candle) model.Signal {
	return signalAt(c, model.ActionStay, model.DirNone)
}
