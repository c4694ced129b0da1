package model

import (
	"encoding/json"
	"strconv"
)

// RateInfo is a raw chart bar as delivered by the gateway's
// getChartRangeRequest command. Prices are integers scaled by 10^digits,
// with high/low/close expressed as deltas against open.
type RateInfo struct {
	Ctm   int64   `json:"ctm"`   // bar open time, Unix ms
	Open  float64 `json:"open"`  // scaled price
	Close float64 `json:"close"` // delta vs open
	High  float64 `json:"high"`  // delta vs open
	Low   float64 `json:"low"`   // delta vs open
	Vol   float64 `json:"vol"`
}

// Candle is one descaled OHLCV bar. Prices are true decimal quotes
// (raw / 10^digits), timestamps stay in Unix ms.
type Candle struct {
	Ctm   int64   `json:"ctm"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	Vol   float64 `json:"vol"`
}

// JSON returns the JSON-encoded raw bar (ignoring errors for hot-path usage).
func (r *RateInfo) JSON() []byte {
	b, _ := json.Marshal(r)
	return b
}

// CacheGroup builds the cache key prefix for a (mode, symbol, timeframe)
// group: "{mode}_{symbol}_{timeframe}".
func CacheGroup(mode, symbol string, timeframe int) string {
	return mode + "_" + symbol + "_" + strconv.Itoa(timeframe)
}

// CacheKey builds the full cache key for one raw bar:
// "{mode}_{symbol}_{timeframe}:{ctm}".
func (r *RateInfo) CacheKey(group string) string {
	return group + ":" + strconv.FormatInt(r.Ctm, 10)
}

// Descale converts a raw bar into a decimal candle using the symbol's digits.
// The feed encodes high/low/close as deltas against open, so those are
// rebased before dividing by 10^digits.
func (r *RateInfo) Descale(digits int) Candle {
	scale := PriceScale(digits)
	return Candle{
		Ctm:   r.Ctm,
		Open:  r.Open / scale,
		High:  (r.Open + r.High) / scale,
		Low:   (r.Open + r.Low) / scale,
		Close: (r.Open + r.Close) / scale,
		Vol:   r.Vol,
	}
}

// PriceScale returns the broker's lot-value multiplier 10^digits used in
// descaling and PnL arithmetic.
func PriceScale(digits int) float64 {
	scale := 1.0
	for i := 0; i < digits; i++ {
		scale *= 10
	}
	return scale
}
