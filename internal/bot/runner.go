// Package bot runs the fetch-merge-evaluate-act trading loop for one
// configured profile.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/devnone21/xtb-trade/config"
	"github.com/devnone21/xtb-trade/internal/candlestore"
	"github.com/devnone21/xtb-trade/internal/fx"
	"github.com/devnone21/xtb-trade/internal/ledger"
	"github.com/devnone21/xtb-trade/internal/logger"
	"github.com/devnone21/xtb-trade/internal/metrics"
	"github.com/devnone21/xtb-trade/internal/model"
	"github.com/devnone21/xtb-trade/internal/notification"
	"github.com/devnone21/xtb-trade/pkg/xtb"
)

// snapshotTTL bounds how long the open-trades snapshots stay cached.
const snapshotTTL = 24 * time.Hour

// Gateway is the broker surface the runner drives. *xtb.Client satisfies
// it; tests substitute a scripted fake.
type Gateway interface {
	GetChartRange(ctx context.Context, symbol string, period int, start, end int64, ticks int) (*xtb.ChartData, error)
	GetMarketStatus(ctx context.Context, symbols []string) (map[string]bool, error)
	GetSymbol(ctx context.Context, symbol string) (*xtb.SymbolInfo, error)
	OpenTrade(ctx context.Context, symbol string, dir model.Direction, volume, tpRate, slRate float64) (int64, error)
	TradeTransaction(ctx context.Context, req xtb.TradeRequest) (int64, error)
	GetTrades(ctx context.Context, openedOnly bool) ([]xtb.TradeSnapshot, error)
	Mode() string
}

// Deps bundles the runner's collaborators. Metrics and Health may be nil.
type Deps struct {
	Gateway  Gateway
	Store    *candlestore.Store
	Cache    model.BarCache
	Journal  model.TradeStore
	Notifier notification.Notifier
	Metrics  *metrics.Metrics
	Health   *metrics.HealthStatus
	Log      *slog.Logger
}

// Runner executes one profile: every cycle it fetches bars for each of the
// profile's symbols, merges them with the cache, evaluates the configured
// indicator preset and acts on the latest bar's signal.
type Runner struct {
	profile config.Profile
	eval    fx.Evaluator

	gw       Gateway
	store    *candlestore.Store
	cache    model.BarCache
	journal  model.TradeStore
	notifier notification.Notifier
	metrics  *metrics.Metrics
	health   *metrics.HealthStatus
	log      *slog.Logger

	now     func() time.Time
	ledgers map[string]*ledger.Ledger
	settled map[*model.Trade]bool
}

// NewRunner builds a runner for one profile. The profile's preset name must
// resolve to a known preset.
func NewRunner(p config.Profile, deps Deps) (*Runner, error) {
	preset, ok := config.Preset(p.Param.IndPreset)
	if !ok {
		return nil, fmt.Errorf("bot: profile %s: unknown preset %q", p.Name, p.Param.IndPreset)
	}
	eval, err := fx.New(preset)
	if err != nil {
		return nil, fmt.Errorf("bot: profile %s: %w", p.Name, err)
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		profile:  p,
		eval:     eval,
		gw:       deps.Gateway,
		store:    deps.Store,
		cache:    deps.Cache,
		journal:  deps.Journal,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		health:   deps.Health,
		log:      log.With(slog.String("profile", p.Name)),
		now:      time.Now,
		ledgers:  make(map[string]*ledger.Ledger),
		settled:  make(map[*model.Trade]bool),
	}, nil
}

// Run cycles until ctx is cancelled. One cycle per timeframe interval, with
// an immediate first cycle.
func (r *Runner) Run(ctx context.Context) error {
	interval := time.Duration(r.profile.Param.Timeframe) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := r.Cycle(ctx); err != nil {
			r.log.Error("cycle failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cycle runs one full pass over the profile's symbols.
func (r *Runner) Cycle(ctx context.Context) error {
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(r.profile.Name, r.now()))
	log := r.clog(ctx)

	status, err := r.gw.GetMarketStatus(ctx, r.profile.Param.Symbols)
	if err != nil {
		r.notify(ctx, notification.GatewayDown(r.profile.Name, err))
		return fmt.Errorf("bot: market status: %w", err)
	}

	for _, symbol := range r.profile.Param.Symbols {
		open := status[symbol]
		r.gaugeMarketState(symbol, open)
		if !open {
			log.Info("market closed, skipping", slog.String("symbol", symbol))
			continue
		}
		if err := r.cycleSymbol(ctx, symbol); err != nil {
			log.Error("symbol cycle failed",
				slog.String("symbol", symbol), slog.Any("error", err))
		}
	}

	if err := r.snapshotTrades(ctx); err != nil {
		log.Warn("trade snapshot failed", slog.Any("error", err))
	}
	if r.health != nil {
		r.health.SetLastCycleTime(r.now())
	}
	return nil
}

func (r *Runner) cycleSymbol(ctx context.Context, symbol string) error {
	start := r.now()
	defer r.observeCycle(start)

	tf := r.profile.Param.Timeframe
	chart, err := r.gw.GetChartRange(ctx, symbol, tf, start.Unix(), start.Unix(), -10_000)
	if err != nil {
		return fmt.Errorf("chart fetch: %w", err)
	}
	if len(chart.RateInfos) == 0 {
		return nil
	}
	r.countBars(len(chart.RateInfos))

	digits := chart.Digits
	if digits == 0 {
		digits = candlestore.Digits(symbol)
	}
	candles := r.store.Merge(ctx, r.gw.Mode(), symbol, tf, chart.RateInfos, digits)
	if len(candles) == 0 {
		return nil
	}
	r.countCandles(len(candles))

	evalStart := time.Now()
	signals := r.eval.Evaluate(candles)
	r.observeEvaluate(evalStart)
	if len(signals) == 0 {
		return nil
	}
	sig := signals[len(signals)-1]
	r.countSignal(sig.Action)
	r.clog(ctx).Info("evaluated",
		slog.String("symbol", symbol),
		slog.String("indicator", r.eval.Name()),
		slog.String("action", sig.Action.String()),
		slog.String("direction", sig.Direction.String()),
		slog.Float64("price", sig.Price))

	led := r.ledger(symbol, digits)
	latest := candles[len(candles)-1]

	// The broker enforces tp/sl server-side on live orders; the local
	// ledger mirrors those exits so its book matches the account.
	r.settleProtective(ctx, led, symbol, latest)

	switch sig.Action {
	case model.ActionOpen:
		return r.actOpen(ctx, led, symbol, sig)
	case model.ActionClose:
		return r.actClose(ctx, led, symbol, sig)
	}
	return nil
}

// actOpen closes any legs opposite to the signal, then opens a new trade
// in the signal's direction.
func (r *Runner) actOpen(ctx context.Context, led *ledger.Ledger, symbol string, sig model.Signal) error {
	if n := led.CloseTrade(sig.Direction.Opposite(), sig.Ctm, sig.Price); n > 0 {
		if err := r.closeAtGateway(ctx, led, symbol); err != nil {
			return err
		}
	}

	p := r.profile.Param
	var order int64
	if p.Breaker {
		// Broker first: a rejected order must never leave a phantom
		// position in the local book.
		var err error
		order, err = r.gw.OpenTrade(ctx, symbol, sig.Direction, p.Volume, p.RateTP, p.RateSL)
		if err != nil {
			// Rejections (invalid params, market just closed) are a
			// notified no-op; only transport failures bubble up.
			if xtb.IsCommandError(err) {
				r.clog(ctx).Warn("open rejected", slog.String("symbol", symbol), slog.Any("error", err))
				r.notify(ctx, notification.Alert{
					Level:   notification.AlertWarning,
					Title:   fmt.Sprintf("%s open rejected on %s", r.profile.Name, symbol),
					Message: err.Error(),
				})
				return nil
			}
			return fmt.Errorf("open trade: %w", err)
		}
	}
	tx := led.OpenTrade(sig.Direction, sig.Ctm, sig.Price, p.RateTP, p.RateSL)
	if order != 0 {
		tx.OrderID = order
	}
	r.countOpen(sig.Direction)
	r.notify(ctx, notification.TradeOpened(r.profile.Name, *tx))
	return r.record(led, symbol)
}

// actClose closes the legs the signal names.
func (r *Runner) actClose(ctx context.Context, led *ledger.Ledger, symbol string, sig model.Signal) error {
	if n := led.CloseTrade(sig.Direction, sig.Ctm, sig.Price); n == 0 {
		return nil
	}
	if err := r.closeAtGateway(ctx, led, symbol); err != nil {
		return err
	}
	return r.record(led, symbol)
}

// settleProtective sweeps tp/sl exits against the latest bar's close.
func (r *Runner) settleProtective(ctx context.Context, led *ledger.Ledger, symbol string, latest model.Candle) {
	n := led.TakeProfit(latest.Ctm, latest.Close)
	n += led.StopLoss(latest.Ctm, latest.Close)
	if n > 0 {
		r.notifyClosed(ctx, led)
		if err := r.record(led, symbol); err != nil {
			r.clog(ctx).Warn("journal write failed", slog.Any("error", err))
		}
	}
}

// closeAtGateway sends close transactions for ledger trades that settled
// this cycle, then notifies. Runs only when the profile trades live.
func (r *Runner) closeAtGateway(ctx context.Context, led *ledger.Ledger, symbol string) error {
	if r.profile.Param.Breaker {
		for _, tx := range led.Records() {
			if !tx.Closed || tx.Reason != model.CloseSignal || r.settled[tx] {
				continue
			}
			_, err := r.gw.TradeTransaction(ctx, xtb.TradeRequest{
				Symbol: symbol,
				Cmd:    cmdFor(tx.Direction),
				Type:   xtb.TransClose,
				Volume: tx.Volume,
				Price:  tx.ClosePrice,
				Order:  tx.OrderID,
			})
			if err != nil {
				return fmt.Errorf("close trade %d: %w", tx.OrderID, err)
			}
		}
	}
	r.notifyClosed(ctx, led)
	return nil
}

// notifyClosed sends one alert per newly settled trade and marks it so a
// later cycle does not re-announce it.
func (r *Runner) notifyClosed(ctx context.Context, led *ledger.Ledger) {
	for _, tx := range led.Records() {
		if !tx.Closed || r.settled[tx] {
			continue
		}
		r.settled[tx] = true
		r.countClose(tx.Reason)
		r.notify(ctx, notification.TradeClosed(r.profile.Name, *tx))
	}
}

// record journals the ledger's trades and its recomputed performance.
func (r *Runner) record(led *ledger.Ledger, symbol string) error {
	if r.journal == nil {
		return nil
	}
	trades := make([]model.Trade, 0, len(led.Records()))
	for _, tx := range led.Records() {
		trades = append(trades, *tx)
	}
	if err := r.journal.RecordTrades(r.profile.Name, trades); err != nil {
		return fmt.Errorf("journal trades: %w", err)
	}
	perf := led.Performance()
	r.gaugeProfit(symbol, perf.TotalProfit)
	if err := r.journal.RecordPerformance(r.profile.Name, symbol, perf.Record()); err != nil {
		return fmt.Errorf("journal performance: %w", err)
	}
	return nil
}

// snapshotTrades rotates the account's open-trade snapshot in the cache:
// the previous snapshot moves to "{mode}_trades_pre" before the fresh one
// lands in "{mode}_trades_cur".
func (r *Runner) snapshotTrades(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	trades, err := r.gw.GetTrades(ctx, true)
	if err != nil {
		return fmt.Errorf("get trades: %w", err)
	}
	cur, err := json.Marshal(trades)
	if err != nil {
		return fmt.Errorf("encode trades: %w", err)
	}

	curKey := r.gw.Mode() + "_trades_cur"
	preKey := r.gw.Mode() + "_trades_pre"
	if prev, err := r.cache.GetMany(ctx, []string{curKey}); err == nil && len(prev) == 1 && prev[0] != nil {
		if err := r.cache.Set(ctx, preKey, prev[0], snapshotTTL); err != nil {
			return err
		}
	}
	return r.cache.Set(ctx, curKey, cur, snapshotTTL)
}

func (r *Runner) ledger(symbol string, digits int) *ledger.Ledger {
	led, ok := r.ledgers[symbol]
	if !ok {
		led = ledger.New(symbol, r.profile.Param.Volume, digits)
		r.ledgers[symbol] = led
	}
	return led
}

// Ledgers exposes the per-symbol books, for reporting.
func (r *Runner) Ledgers() map[string]*ledger.Ledger {
	return r.ledgers
}

func (r *Runner) notify(ctx context.Context, alert notification.Alert) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Send(ctx, alert); err != nil {
		r.clog(ctx).Warn("notification failed", slog.Any("error", err))
	}
}

// clog returns the profile logger with the cycle's trace ID attached.
func (r *Runner) clog(ctx context.Context) *slog.Logger {
	return r.log.With(logger.LogWithTrace(ctx)...)
}

func cmdFor(dir model.Direction) int {
	if dir == model.DirSell {
		return xtb.CmdSell
	}
	return xtb.CmdBuy
}

// ── metrics guards ──

func (r *Runner) gaugeMarketState(symbol string, open bool) {
	if r.metrics == nil {
		return
	}
	v := 0.0
	if open {
		v = 1.0
	}
	r.metrics.MarketState.WithLabelValues(symbol).Set(v)
}

func (r *Runner) observeCycle(start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.CycleDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) observeEvaluate(start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.EvaluateDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) countBars(n int) {
	if r.metrics == nil {
		return
	}
	r.metrics.BarsFetchedTotal.Add(float64(n))
}

func (r *Runner) countCandles(n int) {
	if r.metrics == nil {
		return
	}
	r.metrics.CandlesMergedTotal.Add(float64(n))
}

func (r *Runner) countSignal(a model.Action) {
	if r.metrics == nil {
		return
	}
	r.metrics.SignalsTotal.WithLabelValues(r.profile.Name, a.String()).Inc()
}

func (r *Runner) countOpen(dir model.Direction) {
	if r.metrics == nil {
		return
	}
	r.metrics.TradesOpenedTotal.WithLabelValues(r.profile.Name, dir.String()).Inc()
}

func (r *Runner) countClose(reason model.CloseReason) {
	if r.metrics == nil {
		return
	}
	r.metrics.TradesClosedTotal.WithLabelValues(r.profile.Name, string(reason)).Inc()
}

func (r *Runner) gaugeProfit(symbol string, profit float64) {
	if r.metrics == nil {
		return
	}
	r.metrics.ProfitTotal.WithLabelValues(r.profile.Name, symbol).Set(profit)
}
