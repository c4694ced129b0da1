// Package ledger tracks open and closed trades per symbol and aggregates
// run-level performance.
//
// The ledger is the only owner of trade state: a Trade is created by an OPEN
// signal, mutated by exactly one close/TP/SL event, and never deleted.
// Realized profit follows the broker's lot-value convention:
// (close - open) * 10^digits * volume * direction.
package ledger

import (
	"github.com/devnone21/xtb-trade/internal/model"
)

// Ledger holds all trades for one symbol in one run.
type Ledger struct {
	symbol string
	volume float64
	digits int

	nextID  int64
	records []*model.Trade
}

// New creates an empty ledger for a symbol. digits is the symbol's price
// scale; volume applies to every trade the ledger opens.
func New(symbol string, volume float64, digits int) *Ledger {
	return &Ledger{symbol: symbol, volume: volume, digits: digits, nextID: 1}
}

// Records returns the ledger's trades in open order. Callers must not
// mutate the returned trades.
func (l *Ledger) Records() []*model.Trade {
	return l.records
}

// OpenCount returns the number of currently open trades.
func (l *Ledger) OpenCount() int {
	n := 0
	for _, tx := range l.records {
		if !tx.Closed {
			n++
		}
	}
	return n
}

// OpenTrade creates a trade in direction dir at price, with the take-profit
// level always on the favorable side (price + dir*tpRate) and the stop-loss
// always adverse (price - dir*slRate).
func (l *Ledger) OpenTrade(dir model.Direction, ctm int64, price, tpRate, slRate float64) *model.Trade {
	tx := &model.Trade{
		OrderID:    l.nextID,
		Symbol:     l.symbol,
		Direction:  dir,
		Volume:     l.volume,
		OpenCtm:    ctm,
		OpenPrice:  price,
		TakeProfit: price + float64(dir)*tpRate,
		StopLoss:   price - float64(dir)*slRate,
	}
	l.nextID++
	l.records = append(l.records, tx)
	return tx
}

// CloseTrade closes every still-open trade matching dir at price, realizing
// profit. Returns the number of trades closed.
func (l *Ledger) CloseTrade(dir model.Direction, ctm int64, price float64) int {
	n := 0
	for _, tx := range l.records {
		if tx.Closed || tx.Direction != dir {
			continue
		}
		l.settle(tx, ctm, price, model.CloseSignal)
		n++
	}
	return n
}

// TakeProfit closes every open trade whose take-profit level the price has
// crossed. The trade settles at its own TP level, not at the triggering
// market price. Returns the number of trades closed.
func (l *Ledger) TakeProfit(ctm int64, price float64) int {
	n := 0
	for _, tx := range l.records {
		if tx.Closed {
			continue
		}
		if (price-tx.TakeProfit)*float64(tx.Direction) > 0 {
			l.settle(tx, ctm, tx.TakeProfit, model.CloseTakeProfit)
			n++
		}
	}
	return n
}

// StopLoss closes every open trade whose stop-loss level the price has
// crossed, settling at the trade's own SL level. Returns the number closed.
func (l *Ledger) StopLoss(ctm int64, price float64) int {
	n := 0
	for _, tx := range l.records {
		if tx.Closed {
			continue
		}
		if (price-tx.StopLoss)*float64(tx.Direction) < 0 {
			l.settle(tx, ctm, tx.StopLoss, model.CloseStopLoss)
			n++
		}
	}
	return n
}

func (l *Ledger) settle(tx *model.Trade, ctm int64, price float64, reason model.CloseReason) {
	tx.CloseCtm = ctm
	tx.ClosePrice = price
	tx.Profit = (price - tx.OpenPrice) * model.PriceScale(l.digits) * tx.Volume * float64(tx.Direction)
	tx.Closed = true
	tx.Reason = reason
}
