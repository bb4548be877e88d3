package notify

import (
	"context"
	"log/slog"

	"jobscout/internal/model"
)

// Ensure LogChannel implements Channel.
var _ Channel = (*LogChannel)(nil)

// LogChannel writes new-job alerts to the logger as structured messages.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel returns a channel that logs each job via slog.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

// Send logs the job with company, title, location, and URL. Returns nil
// (stdout logging does not fail).
func (c *LogChannel) Send(_ context.Context, job model.Job) error {
	args := []any{"company", job.Company, "title", job.Title, "location", job.Location, "url", job.URL}
	if job.PostedAt != nil {
		args = append(args, "posted_at", *job.PostedAt)
	}
	c.logger.Info("new job", args...)
	return nil
}
