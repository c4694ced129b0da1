// cmd/tradebot runs the live trading loop: for each configured profile it
// logs into the broker gateway, fetches chart bars on every timeframe tick,
// merges them with the Redis candle cache, evaluates the profile's indicator
// preset and acts on the resulting signal.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/devnone21/xtb-trade/config"
	"github.com/devnone21/xtb-trade/internal/bot"
	"github.com/devnone21/xtb-trade/internal/candlestore"
	"github.com/devnone21/xtb-trade/internal/journal"
	"github.com/devnone21/xtb-trade/internal/logger"
	"github.com/devnone21/xtb-trade/internal/metrics"
	"github.com/devnone21/xtb-trade/internal/notification"
	redisstore "github.com/devnone21/xtb-trade/internal/store/redis"
	"github.com/devnone21/xtb-trade/pkg/xtb"
)

func main() {
	cfg := config.Load()
	log := logger.Init("tradebot", cfg.LogLevel)
	log.Info("starting")

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		log.Error("settings load failed", slog.Any("error", err))
		os.Exit(1)
	}
	accounts, err := config.LoadAccounts(cfg.AccountsPath)
	if err != nil {
		log.Error("accounts load failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("settings loaded",
		slog.String("ray_id", settings.RayID),
		slog.Int("profiles", len(settings.Profiles)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Redis candle cache ----
	cache, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, log)
	if err != nil {
		log.Error("redis init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer cache.Close()
	health.SetRedisConnected(true)
	cache.OnBreakerChange(func(from, to redisstore.State) {
		prom.CacheBreakerState.Set(float64(to))
		if to == redisstore.StateOpen {
			prom.CacheBreakerTrips.Inc()
		}
	})
	log.Info("candle cache ready", slog.String("addr", cfg.RedisAddr))

	// ---- SQLite journal ----
	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	jn, err := journal.New(cfg.SQLitePath)
	if err != nil {
		log.Error("journal init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer jn.Close()

	health.StartLivenessChecker(ctx, cache.Client(), jn.DB(), 10*time.Second)

	// ---- Notifications ----
	backends := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Info("telegram notifications enabled")
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Info("webhook notifications enabled", slog.String("url", cfg.WebhookURL))
	}
	var notifier notification.Notifier = backends[0]
	if len(backends) > 1 {
		notifier = notification.NewFanout(backends...)
	}

	store := candlestore.New(cache, log)

	// ---- Profile runners ----
	var (
		wg      sync.WaitGroup
		clients []*xtb.Client
		active  []string
	)
	for _, p := range settings.Profiles {
		acct, ok := accounts[p.Param.Account]
		if !ok {
			log.Error("unknown account, skipping profile",
				slog.String("profile", p.Name),
				slog.String("account", p.Param.Account))
			continue
		}

		client := xtb.NewClient(log)
		client.OnCommand = func(command string, d time.Duration, err error) {
			status := "ok"
			if err != nil {
				status = "error"
			}
			prom.GatewayCommandsTotal.WithLabelValues(command, status).Inc()
			prom.GatewayCommandDur.Observe(d.Seconds())
		}
		if err := client.Login(ctx, p.Param.Account, acct.Pass, acct.Mode); err != nil {
			log.Error("gateway login failed",
				slog.String("profile", p.Name), slog.Any("error", err))
			continue
		}
		clients = append(clients, client)
		health.SetGatewayConnected(true)

		runner, err := bot.NewRunner(p, bot.Deps{
			Gateway:  client,
			Store:    store,
			Cache:    cache,
			Journal:  jn,
			Notifier: notifier,
			Metrics:  prom,
			Health:   health,
			Log:      log,
		})
		if err != nil {
			log.Error("runner init failed", slog.Any("error", err))
			continue
		}
		active = append(active, p.Name)

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("runner stopped", slog.String("profile", name), slog.Any("error", err))
			}
		}(p.Name)
		log.Info("profile started", slog.String("profile", p.Name))
	}
	health.SetActiveProfiles(active)

	if len(active) == 0 {
		log.Error("no runnable profiles")
		cancel()
	}

	<-ctx.Done()
	log.Info("shutting down")
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	for _, c := range clients {
		c.Logout(shutdownCtx)
	}
	metricsSrv.Stop(shutdownCtx)
	log.Info("stopped")
}
