// cmd/backtest replays cached candle history through an indicator preset
// and a simulated ledger, without touching the broker gateway. It prints a
// performance table and optionally exports the trade ledger as CSV.
//
// Usage:
//
//	go run ./cmd/backtest --symbol=GOLD --timeframe=15 --preset=TA_RSI_L14_XA70_XB30 --csv=out.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/devnone21/xtb-trade/config"
	"github.com/devnone21/xtb-trade/internal/candlestore"
	"github.com/devnone21/xtb-trade/internal/fx"
	"github.com/devnone21/xtb-trade/internal/ledger"
	"github.com/devnone21/xtb-trade/internal/logger"
	"github.com/devnone21/xtb-trade/internal/model"
	redisstore "github.com/devnone21/xtb-trade/internal/store/redis"
)

func main() {
	symbol := flag.String("symbol", "GOLD", "Symbol to replay")
	timeframe := flag.Int("timeframe", 15, "Timeframe in minutes")
	presetName := flag.String("preset", "TA_RSI_L14_XA70_XB30", "Indicator preset name")
	mode := flag.String("mode", "demo", "Cache namespace (demo or real)")
	volume := flag.Float64("volume", 0.1, "Trade volume in lots")
	rateTP := flag.Float64("tp", 2.0, "Take-profit distance in price units")
	rateSL := flag.Float64("sl", 1.0, "Stop-loss distance in price units")
	digits := flag.Int("digits", -1, "Price scale override (-1 = symbol default)")
	csvPath := flag.String("csv", "", "Export trade ledger to CSV file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init("backtest", slog.LevelWarn)

	preset, ok := config.Preset(*presetName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown preset %q\n", *presetName)
		os.Exit(1)
	}
	eval, err := fx.New(preset)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	d := *digits
	if d < 0 {
		d = candlestore.Digits(*symbol)
	}

	// ---- Load candles from cache ----
	cache, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cache.Close()

	ctx := context.Background()
	store := candlestore.New(cache, log)
	candles := store.Merge(ctx, *mode, *symbol, *timeframe, nil, d)
	if len(candles) == 0 {
		fmt.Fprintf(os.Stderr, "no cached candles for %s_%s_%d\n", *mode, *symbol, *timeframe)
		os.Exit(1)
	}
	fmt.Printf("replaying %d candles of %s (tf=%dm, preset=%s)\n\n",
		len(candles), *symbol, *timeframe, *presetName)

	// ---- Replay signals through a simulated ledger ----
	led := ledger.New(*symbol, *volume, d)
	signals := eval.Evaluate(candles)
	for _, sig := range signals {
		led.TakeProfit(sig.Ctm, sig.Price)
		led.StopLoss(sig.Ctm, sig.Price)

		switch sig.Action {
		case model.ActionOpen:
			led.CloseTrade(sig.Direction.Opposite(), sig.Ctm, sig.Price)
			led.OpenTrade(sig.Direction, sig.Ctm, sig.Price, *rateTP, *rateSL)
		case model.ActionClose:
			led.CloseTrade(sig.Direction, sig.Ctm, sig.Price)
		}
	}

	// ---- Report ----
	perf := led.Performance()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Trades", fmt.Sprintf("%d", perf.Trades)})
	table.Append([]string{"Wins", fmt.Sprintf("%d", perf.Wins)})
	table.Append([]string{"Losses", fmt.Sprintf("%d", perf.Losses)})
	table.Append([]string{"Win rate", fmt.Sprintf("%.1f%%", perf.WinRate*100)})
	table.Append([]string{"Total profit", fmt.Sprintf("%.2f", perf.TotalProfit)})
	table.Append([]string{"Max drawdown", fmt.Sprintf("%.2f", perf.MaxDrawdown)})
	table.Append([]string{"Max run-up", fmt.Sprintf("%.2f", perf.MaxRunUp)})
	table.Append([]string{"Trades/day", fmt.Sprintf("%.2f", perf.TradesPerDay)})
	table.Render()

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "csv: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := led.WriteCSV(f); err != nil {
			fmt.Fprintf(os.Stderr, "csv: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nledger written to %s\n", *csvPath)
	}
}
