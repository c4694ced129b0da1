package model

// CloseReason records why a trade left the OPEN state.
type CloseReason string

const (
	CloseNone       CloseReason = ""
	CloseSignal     CloseReason = "SIGNAL"
	CloseTakeProfit CloseReason = "TAKE_PROFIT"
	CloseStopLoss   CloseReason = "STOP_LOSS"
)

// Trade is one ledger record. Created on an OPEN signal, mutated only by
// close/TP/SL events, never deleted: closed trades stay in the ledger for
// reporting.
type Trade struct {
	OrderID    int64       `json:"order_id"`
	Symbol     string      `json:"symbol"`
	Direction  Direction   `json:"direction"`
	Volume     float64     `json:"volume"`
	OpenCtm    int64       `json:"open_ctm"` // Unix ms
	OpenPrice  float64     `json:"open_price"`
	TakeProfit float64     `json:"take_profit"`
	StopLoss   float64     `json:"stop_loss"`
	CloseCtm   int64       `json:"close_ctm,omitempty"`
	ClosePrice float64     `json:"close_price,omitempty"`
	Profit     float64     `json:"profit"`
	Closed     bool        `json:"closed"`
	Reason     CloseReason `json:"close_reason,omitempty"`
}
