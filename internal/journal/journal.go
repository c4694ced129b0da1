// Package journal persists closed trades and performance summaries to
// SQLite for analysis and audit.
package journal

import (
	"database/sql"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/devnone21/xtb-trade/internal/model"
)

// Journal is a SQLite-backed model.TradeStore.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// New opens (or creates) a SQLite journal database.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		profile      TEXT NOT NULL,
		order_id     INTEGER NOT NULL,
		symbol       TEXT NOT NULL,
		direction    TEXT NOT NULL,
		volume       REAL NOT NULL,
		open_time    DATETIME NOT NULL,
		open_price   REAL NOT NULL,
		take_profit  REAL,
		stop_loss    REAL,
		close_time   DATETIME,
		close_price  REAL,
		profit       REAL,
		close_reason TEXT,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(profile, order_id)
	);
	CREATE INDEX IF NOT EXISTS idx_trades_profile ON trades(profile);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_open_time ON trades(open_time);

	CREATE TABLE IF NOT EXISTS performance (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		profile        TEXT NOT NULL,
		symbol         TEXT NOT NULL,
		trades         INTEGER NOT NULL,
		wins           INTEGER NOT NULL,
		losses         INTEGER NOT NULL,
		win_rate       REAL NOT NULL,
		total_profit   REAL NOT NULL,
		max_drawdown   REAL NOT NULL,
		max_run_up     REAL NOT NULL,
		trades_per_day REAL NOT NULL,
		recorded_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_performance_profile ON performance(profile, symbol);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened trade journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// RecordTrades upserts ledger records for a run. Re-recording an order
// replaces its row, so a trade closed after being journaled as open
// ends up with its settled values.
func (j *Journal) RecordTrades(profile string, trades []model.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO trades (profile, order_id, symbol, direction, volume,
			open_time, open_price, take_profit, stop_loss,
			close_time, close_price, profit, close_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(profile, order_id) DO UPDATE SET
			close_time=excluded.close_time,
			close_price=excluded.close_price,
			profit=excluded.profit,
			close_reason=excluded.close_reason`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		var closeTime interface{}
		if t.Closed {
			closeTime = msToRFC3339(t.CloseCtm)
		}
		if _, err := stmt.Exec(
			profile,
			t.OrderID,
			t.Symbol,
			t.Direction.String(),
			t.Volume,
			msToRFC3339(t.OpenCtm),
			t.OpenPrice,
			t.TakeProfit,
			t.StopLoss,
			closeTime,
			t.ClosePrice,
			t.Profit,
			string(t.Reason),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecordPerformance stores one per-symbol performance summary row.
func (j *Journal) RecordPerformance(profile, symbol string, perf model.PerformanceRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO performance (profile, symbol, trades, wins, losses,
			win_rate, total_profit, max_drawdown, max_run_up, trades_per_day)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile, symbol,
		perf.Trades, perf.Wins, perf.Losses,
		perf.WinRate, perf.TotalProfit, perf.MaxDrawdown, perf.MaxRunUp, perf.TradesPerDay,
	)
	return err
}

// TradeRow represents a row from the trades table.
type TradeRow struct {
	ID         int64   `json:"id"`
	Profile    string  `json:"profile"`
	OrderID    int64   `json:"order_id"`
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Volume     float64 `json:"volume"`
	OpenTime   string  `json:"open_time"`
	OpenPrice  float64 `json:"open_price"`
	CloseTime  string  `json:"close_time"`
	ClosePrice float64 `json:"close_price"`
	Profit     float64 `json:"profit"`
	Reason     string  `json:"close_reason"`
}

// Trades returns the last N journaled trades for a profile, newest first.
func (j *Journal) Trades(profile string, limit int) ([]TradeRow, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, profile, order_id, symbol, direction, volume,
			open_time, open_price,
			COALESCE(close_time, ''), COALESCE(close_price, 0),
			COALESCE(profit, 0), COALESCE(close_reason, '')
		 FROM trades WHERE profile = ? ORDER BY id DESC LIMIT ?`, profile, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRow
	for rows.Next() {
		var t TradeRow
		if err := rows.Scan(&t.ID, &t.Profile, &t.OrderID, &t.Symbol, &t.Direction,
			&t.Volume, &t.OpenTime, &t.OpenPrice, &t.CloseTime, &t.ClosePrice,
			&t.Profit, &t.Reason); err != nil {
			continue
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DB exposes the underlying handle for health probes.
func (j *Journal) DB() *sql.DB {
	return j.db
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func msToRFC3339(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
