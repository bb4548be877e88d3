package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gofrs/flock"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"jobscout/internal/adapter"
	"jobscout/internal/config"
	"jobscout/internal/model"
	"jobscout/internal/notify"
	"jobscout/internal/retry"
	"jobscout/internal/store"
)

var (
	cfgPath   string
	debug     bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Job posting scout — fetch, dedupe, store, notify",
	Long:  "Jobscout polls job boards for configured keywords, deduplicates the postings, stores them in SQLite, and alerts you about new ones.",
	// Default to `start` so that `jobscout` with no args runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log output format: console or json")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCOUT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSCOUT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	if logFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
	}))
}

// buildFetcher wires the provider adapter with host-level rate limiting and
// retries.
func buildFetcher(cfg *config.Config, logger *slog.Logger) model.Fetcher {
	httpClient := &http.Client{Timeout: cfg.Fetch.RequestTimeout}
	limiter := adapter.NewHostLimiter(cfg.Fetch.RequestsPerSecond, 1)
	fetcher := adapter.NewAdzunaAdapter(cfg.Adzuna.AppID, cfg.Adzuna.AppKey, cfg.Location, httpClient, limiter, logger)
	return retry.NewFetcher(fetcher, cfg.Fetch.MaxRetries, 5*time.Second, logger)
}

// buildDispatcher assembles the configured notification channels.
func buildDispatcher(cfg *config.Config, logger *slog.Logger) *notify.Dispatcher {
	var channels []notify.Channel
	for _, name := range cfg.Notification.Channels {
		switch name {
		case "log":
			channels = append(channels, notify.NewLogChannel(logger))
		case "email":
			channels = append(channels, notify.NewEmailChannel(cfg.Notification.Email))
		case "discord":
			httpClient := &http.Client{Timeout: 10 * time.Second}
			channels = append(channels, notify.NewDiscordChannel(cfg.Notification.DiscordWebhook, httpClient))
		}
		logger.Info("notification channel enabled", "channel", name)
	}
	return notify.NewDispatcher(channels, logger)
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store.SQLiteStore, error) {
	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.DatabasePath, err)
	}
	logger.Debug("store opened", "path", cfg.DatabasePath)
	return s, nil
}

// acquireRunLock takes an exclusive file lock next to the database so two
// ingestion runs never interleave. The returned release func is safe to call
// once.
func acquireRunLock(dbPath string) (func(), error) {
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another jobscout run is already active (lock: %s)", lock.Path())
	}
	return func() { _ = lock.Unlock() }, nil
}

var salaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))

// formatSalaryRange renders a job's salary for table output, or "" when the
// provider sent none.
func formatSalaryRange(j model.Job) string {
	if j.SalaryMin == nil && j.SalaryMax == nil {
		return ""
	}
	currency := j.SalaryCurrency
	if currency == "" {
		currency = "USD"
	}
	switch {
	case j.SalaryMin != nil && j.SalaryMax != nil:
		return salaryStyle.Render(fmt.Sprintf("%s %.0f-%.0f", currency, *j.SalaryMin, *j.SalaryMax))
	case j.SalaryMin != nil:
		return salaryStyle.Render(fmt.Sprintf("%s %.0f+", currency, *j.SalaryMin))
	default:
		return salaryStyle.Render(fmt.Sprintf("%s up to %.0f", currency, *j.SalaryMax))
	}
}
