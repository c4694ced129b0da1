package config

import "github.com/devnone21/xtb-trade/internal/fx"

// presets maps indicator preset names, as referenced by profile settings,
// onto concrete evaluator parameters.
var presets = map[string]fx.Preset{
	"TA_RSI_L14_XA70_XB30": {Kind: "rsi", Length: 14, XA: 70, XB: 30},
	"TA_RSI_L14_XA65_XB35": {Kind: "rsi", Length: 14, XA: 65, XB: 35},

	"TA_STOCH_K14_XA80_XB20": {Kind: "stoch", K: 14, D: 3, SmoothK: 3, XA: 80, XB: 20},

	"TA_EMAX_F10_S25": {Kind: "emax", Fast: 10, Slow: 25},
	"TA_EMAX_F10_S50": {Kind: "emax", Fast: 10, Slow: 50},
	"TA_EMAX_F25_S50": {Kind: "emax", Fast: 25, Slow: 50},

	"TA_MACD_F12_S26": {Kind: "macd", Fast: 12, Slow: 26, Signal: 9},
}

// Preset resolves an indicator preset by name.
func Preset(name string) (fx.Preset, bool) {
	p, ok := presets[name]
	return p, ok
}
