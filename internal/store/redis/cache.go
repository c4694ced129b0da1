// Package redis implements the bar cache on top of a Redis server.
//
// Keys are plain strings "{mode}_{symbol}_{timeframe}:{ctm}" holding one raw
// bar as flat JSON. Writes carry a TTL so the cache bounds its own growth;
// reads are pattern scans over a key group. All calls run through a circuit
// breaker so a dead Redis degrades the trading cycle instead of stalling it.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultDialTimeout = 5 * time.Second
	scanBatch          = 500

	breakerMaxFailures  = 5
	breakerResetTimeout = 30 * time.Second
)

// Config configures the cache client.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Cache is a Redis-backed bar cache. It satisfies model.BarCache.
type Cache struct {
	client  *goredis.Client
	breaker *CircuitBreaker
	log     *slog.Logger
}

// New creates a Cache and pings the server once to fail fast on bad config.
func New(cfg Config, log *slog.Logger) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c := &Cache{
		client:  client,
		breaker: NewCircuitBreaker(breakerMaxFailures, breakerResetTimeout),
		log:     log,
	}
	c.breaker.OnStateChange = func(from, to State) {
		log.Warn("cache circuit breaker state change",
			slog.String("from", from.String()), slog.String("to", to.String()))
	}
	log.Info("cache connected", slog.String("addr", cfg.Addr))
	return c, nil
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// OnBreakerChange registers an observer for breaker transitions, in
// addition to the built-in state-change logging.
func (c *Cache) OnBreakerChange(fn func(from, to State)) {
	c.breaker.OnStateChange = func(from, to State) {
		c.log.Warn("cache circuit breaker state change",
			slog.String("from", from.String()), slog.String("to", to.String()))
		fn(from, to)
	}
}

// Set stores value under key with a time-to-live.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, value, ttl).Err()
	})
}

// Keys returns all keys matching the glob pattern, using SCAN so a large
// keyspace never blocks the server.
func (c *Cache) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := c.breaker.Execute(func() error {
		iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		return iter.Err()
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// GetMany fetches the values for the given keys in one MGET. Missing keys
// yield nil entries.
func (c *Cache) GetMany(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var vals []interface{}
	err := c.breaker.Execute(func() error {
		res, err := c.client.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}
		vals = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([][]byte, len(vals))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[i] = []byte(s)
		}
	}
	return out, nil
}

// Exists reports whether key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := c.breaker.Execute(func() error {
		res, err := c.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		n = res
		return nil
	})
	return n > 0, err
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
