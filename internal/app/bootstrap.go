package app

import (
	"log/slog"
	"time"

	"futures_go/internal/engine"
	"futures_go/internal/event"
	"futures_go/internal/infra"
	"futures_go/internal/infra/storage"
)

const (
	configPath = "configs/config.yaml"

	// snapshotRetentionDays is how long pre-market snapshots are kept.
	snapshotRetentionDays = 30
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Reconciler *engine.Reconciler
	Sequencer  *engine.Sequencer
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, ledger).
func (b *Bootstrap) Initialize() error {
	slog.Info("Bootstrapping futures reconciler...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("Database initialized", slog.String("path", cfg.Storage.Path))

	cutoff := time.Now().AddDate(0, 0, -snapshotRetentionDays).Format("20060102")
	if n, err := store.DeleteSnapshotsBefore(cutoff); err != nil {
		slog.Warn("Failed to prune old snapshots", slog.Any("error", err))
	} else if n > 0 {
		slog.Info("Pruned old snapshots", slog.Int64("days", n), slog.String("before", cutoff))
	}

	// 4. Ledger and its single consumer
	event.Warmup()
	b.Reconciler = engine.NewReconciler(cfg.Risk)
	b.Sequencer = engine.NewSequencer(cfg.Sequencer.InboxSize, b.Reconciler, store, infra.GlobalMetrics)
	b.Sequencer.SetDumpFile(cfg.Sequencer.DumpFile)
	slog.Info("Ledger ready for snapshot",
		slog.Int64("max_daily_opening_volume", cfg.Risk.MaxDailyOpeningVolume),
		slog.Bool("forbid_closing_today", cfg.Risk.ForbidClosingTodayForIndexFutures))

	return nil
}

// Close releases what Initialize opened.
func (b *Bootstrap) Close() {
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Error("Failed to close storage", slog.Any("error", err))
		}
	}
}
