package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trading bot.
type Metrics struct {
	// Gateway
	GatewayCommandsTotal *prometheus.CounterVec // labels: command, status=ok|error
	GatewayCommandDur    prometheus.Histogram

	// Candle pipeline
	BarsFetchedTotal   prometheus.Counter
	CandlesMergedTotal prometheus.Counter

	// Signal engine
	SignalsTotal *prometheus.CounterVec // labels: profile, action=open|close|stay
	EvaluateDur  prometheus.Histogram

	// Trading
	TradesOpenedTotal *prometheus.CounterVec // labels: profile, direction
	TradesClosedTotal *prometheus.CounterVec // labels: profile, reason
	ProfitTotal       *prometheus.GaugeVec   // labels: profile, symbol

	// Orchestrator
	CycleDur    prometheus.Histogram
	MarketState *prometheus.GaugeVec // labels: symbol; 0=closed, 1=open

	// Cache circuit breaker
	CacheBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	CacheBreakerTrips prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		GatewayCommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_gateway_commands_total",
			Help: "Broker API commands sent (by command name and outcome)",
		}, []string{"command", "status"}),
		GatewayCommandDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_gateway_command_duration_seconds",
			Help:    "Broker API round-trip latency including the rate floor",
			Buckets: []float64{0.2, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		BarsFetchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_bars_fetched_total",
			Help: "Raw bars received from the broker chart API",
		}),
		CandlesMergedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_candles_merged_total",
			Help: "Candles produced by the cache merge pipeline",
		}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_signals_total",
			Help: "Signals emitted by the indicator engine (by profile and action)",
		}, []string{"profile", "action"}),
		EvaluateDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_evaluate_duration_seconds",
			Help:    "Indicator evaluation latency per cycle",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		TradesOpenedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_trades_opened_total",
			Help: "Positions opened (by profile and direction)",
		}, []string{"profile", "direction"}),
		TradesClosedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_trades_closed_total",
			Help: "Positions closed (by profile and close reason)",
		}, []string{"profile", "reason"}),
		ProfitTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradebot_profit_total",
			Help: "Cumulative realized profit per profile and symbol",
		}, []string{"profile", "symbol"}),

		CycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_cycle_duration_seconds",
			Help:    "Full fetch-merge-evaluate-act cycle latency per symbol",
			Buckets: []float64{0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}),
		MarketState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradebot_market_state",
			Help: "Market session state per symbol (0=closed, 1=open)",
		}, []string{"symbol"}),

		CacheBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_cache_circuit_breaker_state",
			Help: "Candle cache circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		CacheBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_cache_circuit_breaker_trips_total",
			Help: "Times the candle cache circuit breaker tripped open",
		}),
	}

	prometheus.MustRegister(
		m.GatewayCommandsTotal,
		m.GatewayCommandDur,
		m.BarsFetchedTotal,
		m.CandlesMergedTotal,
		m.SignalsTotal,
		m.EvaluateDur,
		m.TradesOpenedTotal,
		m.TradesClosedTotal,
		m.ProfitTotal,
		m.CycleDur,
		m.MarketState,
		m.CacheBreakerState,
		m.CacheBreakerTrips,
	)

	return m
}

// HealthStatus represents the bot's health.
type HealthStatus struct {
	mu sync.RWMutex

	GatewayConnected bool      `json:"gateway_connected"`
	LastCycleTime    time.Time `json:"last_cycle_time"`
	RedisConnected   bool      `json:"redis_connected"`
	SQLiteOK         bool      `json:"sqlite_ok"`
	ActiveProfiles   []string  `json:"active_profiles"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetGatewayConnected(v bool) {
	h.mu.Lock()
	h.GatewayConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastCycleTime(t time.Time) {
	h.mu.Lock()
	h.LastCycleTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetActiveProfiles(names []string) {
	h.mu.Lock()
	h.ActiveProfiles = names
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	if !h.GatewayConnected || !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.GatewayConnected && !h.RedisConnected {
		overallStatus = "unhealthy"
	}

	cycleAge := ""
	if !h.LastCycleTime.IsZero() {
		cycleAge = time.Since(h.LastCycleTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status           string   `json:"status"`
		Uptime           string   `json:"uptime"`
		GatewayConnected bool     `json:"gateway_connected"`
		LastCycleTime    string   `json:"last_cycle_time"`
		CycleAge         string   `json:"cycle_age"`
		RedisConnected   bool     `json:"redis_connected"`
		RedisLatencyMs   float64  `json:"redis_latency_ms"`
		SQLiteOK         bool     `json:"sqlite_ok"`
		SQLiteLatencyMs  float64  `json:"sqlite_latency_ms"`
		ActiveProfiles   []string `json:"active_profiles"`
		LastCheckAt      string   `json:"last_check_at"`
	}{
		Status:           overallStatus,
		Uptime:           time.Since(h.StartedAt).Round(time.Second).String(),
		GatewayConnected: h.GatewayConnected,
		LastCycleTime:    h.LastCycleTime.Format(time.RFC3339),
		CycleAge:         cycleAge,
		RedisConnected:   h.RedisConnected,
		RedisLatencyMs:   h.RedisLatencyMs,
		SQLiteOK:         h.SQLiteOK,
		SQLiteLatencyMs:  h.SQLiteLatencyMs,
		ActiveProfiles:   h.ActiveProfiles,
		LastCheckAt:      h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
