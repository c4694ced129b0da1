package candlestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/devnone21/xtb-trade/internal/model"
)

// fakeCache is an in-memory model.BarCache with optional fault injection.
type fakeCache struct {
	data    map[string][]byte
	failSet bool
	failGet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if f.failSet {
		return errors.New("connection refused")
	}
	f.data[key] = value
	return nil
}

func (f *fakeCache) Keys(_ context.Context, pattern string) ([]string, error) {
	if f.failGet {
		return nil, errors.New("connection refused")
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeCache) GetMany(_ context.Context, keys []string) ([][]byte, error) {
	if f.failGet {
		return nil, errors.New("connection refused")
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = f.data[k]
	}
	return out, nil
}

func (f *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeCache) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore pins "now" far enough ahead of the bar timestamps that no
// bar is treated as still forming.
func newTestStore(cache model.BarCache, nowMs int64) *Store {
	s := New(cache, discardLogger())
	s.now = func() time.Time { return time.UnixMilli(nowMs) }
	return s
}

func TestMerge_Descaling(t *testing.T) {
	fresh := []model.RateInfo{
		{Ctm: 1_700_000_000_000, Open: 12345, Close: 15, High: 55, Low: -45, Vol: 10},
	}
	store := newTestStore(newFakeCache(), 1_700_000_600_000)

	candles := store.Merge(context.Background(), "demo", "GOLD", 1, fresh, 2)
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	c := candles[0]
	if c.Open != 123.45 {
		t.Errorf("open: expected 123.45, got %v", c.Open)
	}
	if c.Close != 123.60 {
		t.Errorf("close: expected 123.60, got %v", c.Close)
	}
	if c.High != 124.00 {
		t.Errorf("high: expected 124.00, got %v", c.High)
	}
	if c.Low != 123.00 {
		t.Errorf("low: expected 123.00, got %v", c.Low)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	fresh := []model.RateInfo{
		{Ctm: 1_700_000_000_000, Open: 50000, Close: 10},
		{Ctm: 1_700_000_060_000, Open: 50010, Close: -5},
	}
	cache := newFakeCache()
	store := newTestStore(cache, 1_700_000_600_000)
	ctx := context.Background()

	first := store.Merge(ctx, "demo", "EURUSD", 1, fresh, 5)
	second := store.Merge(ctx, "demo", "EURUSD", 1, fresh, 5)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 candles on both merges, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("merge not idempotent at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestMerge_OrdersByTimestamp(t *testing.T) {
	fresh := []model.RateInfo{
		{Ctm: 1_700_000_120_000, Open: 300},
		{Ctm: 1_700_000_000_000, Open: 100},
		{Ctm: 1_700_000_060_000, Open: 200},
	}
	store := newTestStore(newFakeCache(), 1_700_000_600_000)

	candles := store.Merge(context.Background(), "demo", "GOLD", 1, fresh, 2)
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Ctm <= candles[i-1].Ctm {
			t.Errorf("series not strictly increasing at %d: %d <= %d",
				i, candles[i].Ctm, candles[i-1].Ctm)
		}
	}
}

func TestMerge_DropsFormingBar(t *testing.T) {
	nowMs := int64(1_700_000_120_000)
	fresh := []model.RateInfo{
		{Ctm: nowMs - 600_000, Open: 100}, // long closed
		{Ctm: nowMs - 30_000, Open: 200},  // inside the current 1m window
	}
	store := newTestStore(newFakeCache(), nowMs)

	candles := store.Merge(context.Background(), "demo", "GOLD", 1, fresh, 2)
	if len(candles) != 1 {
		t.Fatalf("expected forming bar to be dropped, got %d candles", len(candles))
	}
	if candles[0].Ctm != nowMs-600_000 {
		t.Errorf("wrong surviving bar: %d", candles[0].Ctm)
	}
}

func TestMerge_CacheDownDegradesToFresh(t *testing.T) {
	cache := newFakeCache()
	cache.failSet = true
	cache.failGet = true
	fresh := []model.RateInfo{
		{Ctm: 1_700_000_000_000, Open: 12345, Close: 15},
	}
	store := newTestStore(cache, 1_700_000_600_000)

	candles := store.Merge(context.Background(), "demo", "GOLD", 1, fresh, 2)
	if len(candles) != 1 {
		t.Fatalf("expected degraded merge over fresh bars, got %d candles", len(candles))
	}
}

func TestMerge_EmptyInput(t *testing.T) {
	store := newTestStore(newFakeCache(), 1_700_000_600_000)
	candles := store.Merge(context.Background(), "demo", "GOLD", 1, nil, 0)
	if len(candles) != 0 {
		t.Fatalf("expected empty series, got %d", len(candles))
	}
}

func TestMerge_UsesDefaultDigitsWithoutFetch(t *testing.T) {
	cache := newFakeCache()
	store := newTestStore(cache, 1_700_000_600_000)
	ctx := context.Background()

	// Seed the cache through a normal merge, then replay cache-only.
	fresh := []model.RateInfo{{Ctm: 1_700_000_000_000, Open: 112345, Close: 0}}
	store.Merge(ctx, "real", "EURUSD", 1, fresh, 5)

	candles := store.Merge(ctx, "real", "EURUSD", 1, nil, 0)
	if len(candles) != 1 {
		t.Fatalf("expected 1 cached candle, got %d", len(candles))
	}
	if candles[0].Open != 1.12345 {
		t.Errorf("expected EURUSD default digits=5, open=1.12345, got %v", candles[0].Open)
	}
}

func TestDigits_Fallback(t *testing.T) {
	if d := Digits("EURUSD"); d != 5 {
		t.Errorf("EURUSD: expected 5, got %d", d)
	}
	if d := Digits("UNKNOWN"); d != defaultDigits {
		t.Errorf("unknown symbol: expected %d, got %d", defaultDigits, d)
	}
}
