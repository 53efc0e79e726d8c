package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"futures_go/internal/app"
	"futures_go/internal/domain"
	"futures_go/internal/infra"
	"futures_go/internal/infra/gateway"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config
	seq := bootstrap.Sequencer

	// 4. Sequencer in its own goroutine (the only writer of the ledger)
	go seq.Run(ctx)
	slog.InfoContext(ctx, "Sequencer started")

	// 5. Session bridge feeding order updates and the pre-market snapshot
	var worker domain.GatewayWorker
	if cfg.Gateway.WSURL != "" {
		worker = gateway.NewWorker(cfg.Gateway.WSURL, cfg.Gateway.AccountID, cfg.Gateway.AccessToken, seq.Inbox(), infra.GlobalMetrics)
		if err := worker.Connect(ctx); err != nil {
			slog.Error("Failed to connect gateway", slog.Any("error", err))
		}
		defer worker.Disconnect()
		slog.InfoContext(ctx, "Gateway worker started", slog.String("account", cfg.Gateway.AccountID))
	} else {
		slog.Warn("No gateway configured; ledger waits for events on the inbox")
	}

	go reportMetrics(ctx, worker)

	slog.InfoContext(ctx, "Reconciler fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.Info("Shutting down gracefully...")
	<-seq.Done()
	seq.DumpState(cfg.Sequencer.ShutdownDumpFile)

	day := seq.TradingDay()
	if day == "" {
		day = time.Now().Format("20060102")
	}
	if rows, err := bootstrap.Storage.Rejections(day); err == nil && len(rows) > 0 {
		slog.Info("Risk rejections today", slog.String("trading_day", day), slog.Int("count", len(rows)))
	}
}

// reportMetrics logs the counters once a minute.
func reportMetrics(ctx context.Context, worker domain.GatewayWorker) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := infra.GlobalMetrics.Snapshot()
			slog.Info("metrics",
				slog.Uint64("applied", m.EventsApplied),
				slog.Uint64("duplicates", m.Duplicates),
				slog.Uint64("discarded", m.Discarded),
				slog.Uint64("buffered", m.Buffered),
				slog.Uint64("risk_rejections", m.RiskRejections),
				slog.Uint64("consistency_warnings", m.ConsistencyWarnings),
				slog.Uint64("errors", m.ErrorsTotal),
				slog.Int64("avg_latency_ns", m.AvgLatencyNs),
				slog.Bool("gateway_connected", worker != nil && worker.IsConnected()))
		}
	}
}
