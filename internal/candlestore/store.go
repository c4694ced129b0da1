// Package candlestore reconstructs a continuous candle series from the bar
// cache plus freshly fetched ticks.
//
// Fresh raw bars are written through to the cache with a TTL proportional to
// the timeframe, then the full lookback window is read back, deduplicated by
// timestamp, stripped of the still-forming bar, sorted, and descaled into
// decimal candles. A dead cache degrades the merge to fresh-bars-only; it
// never fails the cycle.
package candlestore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/devnone21/xtb-trade/internal/model"
)

const (
	// lookbackBars is how many closed bars the signal evaluation needs.
	lookbackBars = 400

	// ttlPerTimeframe scales the cache TTL: a bar lives timeframe*172_800
	// seconds, roughly 2x timeframe-days of retention.
	ttlPerTimeframe = 172_800

	// bucketSizeMs groups bars into coarse ranges for cheap range scans.
	// The bucket carries no meaning beyond lookup granularity.
	bucketSizeMs = 100_000
)

// symbolDigits holds the static per-symbol decimal scale used when a merge
// runs cache-only (no fresh fetch reporting digits).
var symbolDigits = map[string]int{
	"GOLD":     2,
	"GOLD.FUT": 2,
	"BITCOIN":  0,
	"USDJPY":   3,
	"OIL.WTI":  2,
	"EURUSD":   5,
	"SILVER":   3,
}

const defaultDigits = 2

// Digits returns the decimal scale for a symbol, falling back to the
// default when the symbol is unknown.
func Digits(symbol string) int {
	if d, ok := symbolDigits[symbol]; ok {
		return d
	}
	return defaultDigits
}

// Store merges freshly fetched raw bars with the persisted cache into an
// ordered decimal candle series.
type Store struct {
	cache model.BarCache
	log   *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// New creates a Store over the given cache.
func New(cache model.BarCache, log *slog.Logger) *Store {
	return &Store{cache: cache, log: log, now: time.Now}
}

// Merge writes fresh raw bars into the cache for the (mode, symbol,
// timeframe) group, reads back the lookback window, and returns the ordered
// decimal candle series. digits <= 0 means no fetch occurred and the static
// per-symbol default applies. An empty result means "no signal this cycle",
// not an error.
func (s *Store) Merge(ctx context.Context, mode, symbol string, timeframe int, fresh []model.RateInfo, digits int) []model.Candle {
	group := model.CacheGroup(mode, symbol, timeframe)
	ttl := time.Duration(timeframe*ttlPerTimeframe) * time.Second

	for i := range fresh {
		r := &fresh[i]
		if err := s.cache.Set(ctx, r.CacheKey(group), r.JSON(), ttl); err != nil {
			s.log.Error("cache write failed, continuing with fresh bars",
				slog.String("group", group), slog.Any("err", err))
			break
		}
	}

	raw := s.readGroup(ctx, group, timeframe)
	if len(raw) == 0 {
		// Degraded: evaluate on the fetch alone.
		raw = fresh
	}

	now := s.now()
	bars := dedupAndFilter(raw, timeframe, now)
	sort.Slice(bars, func(i, j int) bool { return bars[i].Ctm < bars[j].Ctm })

	if digits <= 0 {
		digits = Digits(symbol)
	}
	candles := make([]model.Candle, len(bars))
	for i := range bars {
		candles[i] = bars[i].Descale(digits)
	}
	return candles
}

// readGroup scans the cache for the group's keys inside the lookback bucket
// range and fetches their raw bars. Returns nil on any cache error.
func (s *Store) readGroup(ctx context.Context, group string, timeframe int) []model.RateInfo {
	keys, err := s.cache.Keys(ctx, group+":*")
	if err != nil {
		s.log.Error("cache scan failed", slog.String("group", group), slog.Any("err", err))
		return nil
	}

	minCtm := s.now().Add(-time.Duration(lookbackBars*timeframe) * time.Minute).UnixMilli()
	keys = filterBucketRange(keys, minCtm)
	if len(keys) == 0 {
		return nil
	}

	vals, err := s.cache.GetMany(ctx, keys)
	if err != nil {
		s.log.Error("cache read failed", slog.String("group", group), slog.Any("err", err))
		return nil
	}

	bars := make([]model.RateInfo, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue // expired between scan and fetch
		}
		var r model.RateInfo
		if err := json.Unmarshal(v, &r); err != nil {
			s.log.Warn("skipping malformed cached bar", slog.String("group", group), slog.Any("err", err))
			continue
		}
		bars = append(bars, r)
	}
	s.log.Debug("cache merge", slog.String("group", group), slog.Int("bars", len(bars)))
	return bars
}

// filterBucketRange keeps keys whose timestamp bucket is at or after the
// minimum bucket. Keys carry the timestamp after the last ':'.
func filterBucketRange(keys []string, minCtm int64) []string {
	minBucket := minCtm / bucketSizeMs
	out := keys[:0]
	for _, k := range keys {
		i := strings.LastIndexByte(k, ':')
		if i < 0 {
			continue
		}
		ctm, err := strconv.ParseInt(k[i+1:], 10, 64)
		if err != nil {
			continue
		}
		if ctm/bucketSizeMs >= minBucket {
			out = append(out, k)
		}
	}
	return out
}

// dedupAndFilter deduplicates raw bars by timestamp and drops any bar whose
// close time has not fully elapsed: an in-progress bar must never be
// evaluated as closed.
func dedupAndFilter(raw []model.RateInfo, timeframe int, now time.Time) []model.RateInfo {
	seen := make(map[int64]struct{}, len(raw))
	out := make([]model.RateInfo, 0, len(raw))
	nowSec := now.Unix()
	barSec := int64(timeframe) * 60
	for _, r := range raw {
		if _, dup := seen[r.Ctm]; dup {
			continue
		}
		seen[r.Ctm] = struct{}{}
		if nowSec-r.Ctm/1000 <= barSec {
			continue
		}
		out = append(out, r)
	}
	return out
}
