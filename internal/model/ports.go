package model

import (
	"context"
	"time"
)

// ── Storage Port Interfaces ──
// These interfaces decouple business logic from concrete storage
// implementations (Redis cache, SQLite journal). Each implementation
// satisfies one or more of these interfaces.

// BarCache is the key-value cache the candle store reads and writes.
// Keys are plain strings "{mode}_{symbol}_{timeframe}:{ctm}"; values are the
// raw bar serialized as a flat JSON mapping.
type BarCache interface {
	// Set stores a value under key with a time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Keys returns all keys matching the glob pattern (e.g. "group:*").
	Keys(ctx context.Context, pattern string) ([]string, error)

	// GetMany fetches the values for the given keys. Missing keys yield
	// nil entries.
	GetMany(ctx context.Context, keys []string) ([][]byte, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases underlying resources.
	Close() error
}

// TradeStore persists ledger records and performance summaries for
// downstream reporting.
type TradeStore interface {
	// RecordTrades upserts ledger records for a run.
	RecordTrades(profile string, trades []Trade) error

	// RecordPerformance stores one per-symbol performance summary row.
	RecordPerformance(profile, symbol string, perf PerformanceRecord) error

	// Close releases underlying resources.
	Close() error
}

// PerformanceRecord is the flat, storage-facing shape of a run-level
// performance summary.
type PerformanceRecord struct {
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	TotalProfit  float64 `json:"total_profit"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	MaxRunUp     float64 `json:"max_run_up"`
	TradesPerDay float64 `json:"trades_per_day"`
}
