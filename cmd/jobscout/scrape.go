package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobscout/internal/adapter"
	"jobscout/internal/dedup"
	"jobscout/internal/model"
	"jobscout/internal/notify"
	"jobscout/internal/pipeline"
	"jobscout/internal/store"
)

var scrapeDryRun bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one ingestion pass and exit",
	Long:  "Fetches all configured keywords once, stores new postings, sends notifications, and exits.",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "fetch and log, but persist and notify nothing")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"keywords", len(cfg.Keywords),
		"location", cfg.Location,
		"channels", cfg.Notification.Channels,
	)

	var jobStore model.Store
	var dispatcher model.Dispatcher
	if scrapeDryRun {
		logger.Info("dry-run mode enabled, nothing will be persisted or delivered")
		jobStore = store.NewNopStore()
		dispatcher = notify.NewDispatcher([]notify.Channel{notify.NewLogChannel(logger)}, logger)
	} else {
		release, err := acquireRunLock(cfg.DatabasePath)
		if err != nil {
			logger.Error("cannot start run", "error", err)
			os.Exit(1)
		}
		defer release()

		sqlStore, err := openStore(cfg, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		jobStore = sqlStore
		dispatcher = buildDispatcher(cfg, logger)
	}

	classifier := dedup.NewClassifier(jobStore, cfg.Dedup.SimilarityThreshold, cfg.Dedup.FuzzyWindow, cfg.Dedup.FuzzyEnabled, logger)
	p := pipeline.New(
		"adzuna",
		adapter.AdzunaBaseURL,
		buildFetcher(cfg, logger),
		classifier,
		jobStore,
		dispatcher,
		cfg.Keywords,
		cfg.Fetch.RateLimitDelay,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := p.Run(ctx)
	if err != nil {
		logger.Error("ingestion run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("scrape complete",
		"fetched", stats.Fetched,
		"new", stats.NewJobs,
		"duplicates", stats.Duplicates,
		"errors", stats.Errors,
	)
	return nil
}
