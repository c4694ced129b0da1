package journal

import (
	"path/filepath"
	"testing"

	"github.com/devnone21/xtb-trade/internal/model"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordTradesRoundTrip(t *testing.T) {
	j := openTestJournal(t)

	trades := []model.Trade{
		{OrderID: 1, Symbol: "GOLD", Direction: model.DirBuy, Volume: 0.1,
			OpenCtm: 1_700_000_000_000, OpenPrice: 1950.0, TakeProfit: 1955.0, StopLoss: 1945.0},
		{OrderID: 2, Symbol: "GOLD", Direction: model.DirSell, Volume: 0.1,
			OpenCtm: 1_700_000_060_000, OpenPrice: 1951.0,
			CloseCtm: 1_700_000_120_000, ClosePrice: 1949.0, Profit: 20.0,
			Closed: true, Reason: model.CloseSignal},
	}
	if err := j.RecordTrades("gold-h1", trades); err != nil {
		t.Fatalf("RecordTrades: %v", err)
	}

	rows, err := j.Trades("gold-h1", 10)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// newest first
	if rows[0].OrderID != 2 || rows[0].Reason != "SIGNAL" {
		t.Errorf("row[0] = %+v, want order 2 closed by SIGNAL", rows[0])
	}
	if rows[1].CloseTime != "" {
		t.Errorf("open trade close_time = %q, want empty", rows[1].CloseTime)
	}
}

func TestRecordTradesUpsertsOnReplay(t *testing.T) {
	j := openTestJournal(t)

	open := model.Trade{OrderID: 5, Symbol: "EURUSD", Direction: model.DirBuy, Volume: 0.2,
		OpenCtm: 1_700_000_000_000, OpenPrice: 1.1}
	if err := j.RecordTrades("eur-m5", []model.Trade{open}); err != nil {
		t.Fatalf("RecordTrades open: %v", err)
	}

	closed := open
	closed.CloseCtm = 1_700_000_300_000
	closed.ClosePrice = 1.101
	closed.Profit = 200
	closed.Closed = true
	closed.Reason = model.CloseTakeProfit
	if err := j.RecordTrades("eur-m5", []model.Trade{closed}); err != nil {
		t.Fatalf("RecordTrades close: %v", err)
	}

	rows, err := j.Trades("eur-m5", 10)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (upsert)", len(rows))
	}
	if rows[0].Profit != 200 || rows[0].Reason != "TAKE_PROFIT" {
		t.Errorf("row = %+v, want settled values", rows[0])
	}
}

func TestRecordTradesScopedByProfile(t *testing.T) {
	j := openTestJournal(t)

	tr := model.Trade{OrderID: 1, Symbol: "GOLD", Direction: model.DirBuy, Volume: 0.1,
		OpenCtm: 1_700_000_000_000, OpenPrice: 1950.0}
	if err := j.RecordTrades("a", []model.Trade{tr}); err != nil {
		t.Fatalf("RecordTrades: %v", err)
	}
	if err := j.RecordTrades("b", []model.Trade{tr}); err != nil {
		t.Fatalf("RecordTrades same order, other profile: %v", err)
	}

	rows, _ := j.Trades("a", 10)
	if len(rows) != 1 {
		t.Errorf("profile a rows = %d, want 1", len(rows))
	}
}

func TestRecordPerformance(t *testing.T) {
	j := openTestJournal(t)

	perf := model.PerformanceRecord{
		Trades: 4, Wins: 3, Losses: 1, WinRate: 0.75,
		TotalProfit: 1200, MaxDrawdown: -300, MaxRunUp: 1500, TradesPerDay: 2,
	}
	if err := j.RecordPerformance("gold-h1", "GOLD", perf); err != nil {
		t.Fatalf("RecordPerformance: %v", err)
	}

	var winRate float64
	row := j.DB().QueryRow(`SELECT win_rate FROM performance WHERE profile = ? AND symbol = ?`, "gold-h1", "GOLD")
	if err := row.Scan(&winRate); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if winRate != 0.75 {
		t.Errorf("win_rate = %v, want 0.75", winRate)
	}
}
