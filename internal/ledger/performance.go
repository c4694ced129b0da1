package ledger

import (
	"time"

	"github.com/devnone21/xtb-trade/internal/model"
)

// Performance is a pure projection over the ledger's records: it carries no
// state of its own and always matches a fresh recomputation.
type Performance struct {
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	TotalProfit  float64 `json:"total_profit"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	MaxRunUp     float64 `json:"max_run_up"`
	TradesPerDay float64 `json:"trades_per_day"`
}

// Performance recomputes the run-level summary from all records. An empty
// ledger yields the zero summary; a single-instant run guards the
// trades-per-day division.
func (l *Ledger) Performance() Performance {
	var p Performance
	if len(l.records) == 0 {
		return p
	}

	var cum float64
	firstOpen := l.records[0].OpenCtm
	lastOpen := l.records[0].OpenCtm
	for _, tx := range l.records {
		p.Trades++
		if tx.OpenCtm < firstOpen {
			firstOpen = tx.OpenCtm
		}
		if tx.OpenCtm > lastOpen {
			lastOpen = tx.OpenCtm
		}
		if !tx.Closed {
			continue
		}
		if tx.Profit > 0 {
			p.Wins++
		} else {
			p.Losses++
		}
		cum += tx.Profit
		if cum < p.MaxDrawdown {
			p.MaxDrawdown = cum
		}
		if cum > p.MaxRunUp {
			p.MaxRunUp = cum
		}
	}
	p.TotalProfit = cum
	p.WinRate = float64(p.Wins) / float64(p.Trades)

	days := float64(lastOpen-firstOpen) / float64(24*time.Hour/time.Millisecond)
	if days > 0 {
		p.TradesPerDay = float64(p.Trades) / days
	} else {
		p.TradesPerDay = float64(p.Trades)
	}
	return p
}

// Record converts the summary into its storage-facing shape.
func (p Performance) Record() model.PerformanceRecord {
	return model.PerformanceRecord{
		Trades:       p.Trades,
		Wins:         p.Wins,
		Losses:       p.Losses,
		WinRate:      p.WinRate,
		TotalProfit:  p.TotalProfit,
		MaxDrawdown:  p.MaxDrawdown,
		MaxRunUp:     p.MaxRunUp,
		TradesPerDay: p.TradesPerDay,
	}
}
