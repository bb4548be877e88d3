package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobscout/internal/adapter"
	"jobscout/internal/dedup"
	"jobscout/internal/pipeline"
	"jobscout/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the polling daemon",
	Long:  "Runs ingestion on the configured interval; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.PollingInterval.String(),
		"keywords", len(cfg.Keywords),
		"location", cfg.Location,
		"channels", cfg.Notification.Channels,
	)

	release, err := acquireRunLock(cfg.DatabasePath)
	if err != nil {
		logger.Error("cannot start daemon", "error", err)
		os.Exit(1)
	}
	defer release()

	sqlStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	classifier := dedup.NewClassifier(sqlStore, cfg.Dedup.SimilarityThreshold, cfg.Dedup.FuzzyWindow, cfg.Dedup.FuzzyEnabled, logger)
	p := pipeline.New(
		"adzuna",
		adapter.AdzunaBaseURL,
		buildFetcher(cfg, logger),
		classifier,
		sqlStore,
		buildDispatcher(cfg, logger),
		cfg.Keywords,
		cfg.Fetch.RateLimitDelay,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(p, cfg.PollingInterval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
