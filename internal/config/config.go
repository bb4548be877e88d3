package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobscout pipeline.
type Config struct {
	DatabasePath    string
	PollingInterval time.Duration
	Keywords        []string
	Location        string // provider country/location hint, e.g. "us"
	Adzuna          AdzunaConfig
	Fetch           FetchConfig
	Dedup           DedupConfig
	Notification    NotificationConfig
}

// AdzunaConfig holds Adzuna API credentials. Values are expanded from
// environment variables by Load, so the YAML can reference ${ADZUNA_APP_ID}.
type AdzunaConfig struct {
	AppID  string `yaml:"app_id"`
	AppKey string `yaml:"app_key"`
}

// FetchConfig controls provider request behavior.
type FetchConfig struct {
	RequestTimeout    time.Duration // per-request HTTP timeout
	RateLimitDelay    time.Duration // pipeline pause after each keyword fetch
	MaxRetries        int           // additional attempts after the first failure
	RequestsPerSecond float64       // provider-side host limiter rate
}

// DedupConfig controls the duplicate classifier.
type DedupConfig struct {
	FuzzyEnabled        bool
	FuzzyWindow         int // recent active jobs scanned by the fuzzy tier; 0 disables it.
	SimilarityThreshold float64
}

// NotificationConfig selects delivery channels and their settings.
type NotificationConfig struct {
	Channels       []string // any of "log", "email", "discord"
	Email          EmailConfig
	DiscordWebhook string
}

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	From         string `yaml:"from"`
	To           string `yaml:"to"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	DatabasePath    string                 `yaml:"database_path"`
	PollingInterval string                 `yaml:"polling_interval"`
	Keywords        []string               `yaml:"keywords"`
	Location        string                 `yaml:"location"`
	Adzuna          AdzunaConfig           `yaml:"adzuna"`
	Fetch           rawFetchConfig         `yaml:"fetch"`
	Dedup           rawDedupConfig         `yaml:"dedup"`
	Notification    rawNotificationConfig  `yaml:"notification"`
}

type rawFetchConfig struct {
	RequestTimeout    string  `yaml:"request_timeout"`
	RateLimitDelay    string  `yaml:"rate_limit_delay"`
	MaxRetries        *int    `yaml:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type rawDedupConfig struct {
	FuzzyEnabled        *bool    `yaml:"fuzzy_enabled"`
	FuzzyWindow         *int     `yaml:"fuzzy_window"`
	SimilarityThreshold *float64 `yaml:"similarity_threshold"`
}

type rawNotificationConfig struct {
	Channels       []string    `yaml:"channels"`
	Email          EmailConfig `yaml:"email"`
	DiscordWebhook string      `yaml:"discord_webhook"`
}

// Load reads a .env file if present, then parses the YAML config at path with
// environment variables expanded, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		DatabasePath: raw.DatabasePath,
		Keywords:     raw.Keywords,
		Location:     raw.Location,
		Adzuna:       raw.Adzuna,
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "data/jobs.db"
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}

	cfg.PollingInterval = 1 * time.Hour
	if raw.PollingInterval != "" {
		cfg.PollingInterval, err = time.ParseDuration(raw.PollingInterval)
		if err != nil {
			return nil, fmt.Errorf("parse polling_interval %q: %w", raw.PollingInterval, err)
		}
	}

	cfg.Fetch = FetchConfig{
		RequestTimeout:    10 * time.Second,
		RateLimitDelay:    1 * time.Second,
		MaxRetries:        3,
		RequestsPerSecond: 1,
	}
	if raw.Fetch.RequestTimeout != "" {
		cfg.Fetch.RequestTimeout, err = time.ParseDuration(raw.Fetch.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse fetch.request_timeout %q: %w", raw.Fetch.RequestTimeout, err)
		}
	}
	if raw.Fetch.RateLimitDelay != "" {
		cfg.Fetch.RateLimitDelay, err = time.ParseDuration(raw.Fetch.RateLimitDelay)
		if err != nil {
			return nil, fmt.Errorf("parse fetch.rate_limit_delay %q: %w", raw.Fetch.RateLimitDelay, err)
		}
	}
	if raw.Fetch.MaxRetries != nil {
		cfg.Fetch.MaxRetries = *raw.Fetch.MaxRetries
	}
	if raw.Fetch.RequestsPerSecond > 0 {
		cfg.Fetch.RequestsPerSecond = raw.Fetch.RequestsPerSecond
	}

	// The fuzzy window is a performance bound, not a correctness guarantee: a
	// very large single run can miss cross-keyword duplicates older than the
	// window, so it stays configurable.
	cfg.Dedup = DedupConfig{
		FuzzyEnabled:        true,
		FuzzyWindow:         100,
		SimilarityThreshold: 0.85,
	}
	if raw.Dedup.FuzzyEnabled != nil {
		cfg.Dedup.FuzzyEnabled = *raw.Dedup.FuzzyEnabled
	}
	if raw.Dedup.FuzzyWindow != nil {
		cfg.Dedup.FuzzyWindow = *raw.Dedup.FuzzyWindow
	}
	if raw.Dedup.SimilarityThreshold != nil {
		cfg.Dedup.SimilarityThreshold = *raw.Dedup.SimilarityThreshold
	}

	cfg.Notification = NotificationConfig{
		Channels:       raw.Notification.Channels,
		Email:          raw.Notification.Email,
		DiscordWebhook: raw.Notification.DiscordWebhook,
	}
	if len(cfg.Notification.Channels) == 0 {
		cfg.Notification.Channels = []string{"log"}
	}
	if cfg.Notification.Email.SMTPHost == "" {
		cfg.Notification.Email.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Notification.Email.SMTPPort == 0 {
		cfg.Notification.Email.SMTPPort = 587
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.Keywords) == 0 {
		return fmt.Errorf("at least one keyword is required")
	}
	if cfg.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.Fetch.RequestTimeout <= 0 {
		return fmt.Errorf("fetch.request_timeout must be positive, got %v", cfg.Fetch.RequestTimeout)
	}
	if cfg.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative, got %d", cfg.Fetch.MaxRetries)
	}
	if cfg.Dedup.FuzzyWindow < 0 {
		return fmt.Errorf("dedup.fuzzy_window must not be negative, got %d", cfg.Dedup.FuzzyWindow)
	}
	if cfg.Dedup.SimilarityThreshold <= 0 || cfg.Dedup.SimilarityThreshold > 1 {
		return fmt.Errorf("dedup.similarity_threshold must be in (0, 1], got %v", cfg.Dedup.SimilarityThreshold)
	}

	for _, ch := range cfg.Notification.Channels {
		switch ch {
		case "log":
		case "email":
			if cfg.Notification.Email.From == "" || cfg.Notification.Email.To == "" {
				return fmt.Errorf("notification.email.from and .to are required when the email channel is enabled")
			}
		case "discord":
			if cfg.Notification.DiscordWebhook == "" {
				return fmt.Errorf("notification.discord_webhook is required when the discord channel is enabled")
			}
		default:
			return fmt.Errorf("unknown notification channel %q (want log, email, or discord)", ch)
		}
	}

	return nil
}
