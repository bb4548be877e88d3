// Package notify delivers new-job alerts. Each transport implements Channel;
// the Dispatcher fans a job out to every configured channel and reports
// per-channel success so the pipeline can record confirmed deliveries only.
package notify

import (
	"context"
	"log/slog"
	"time"

	"jobscout/internal/model"
)

// Channel delivers one alert over a single transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, job model.Job) error
}

// Dispatcher implements model.Dispatcher over a set of channels.
type Dispatcher struct {
	channels []Channel
	logger   *slog.Logger
}

var _ model.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(channels []Channel, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{channels: channels, logger: logger}
}

// Deliver sends the job to every channel. A failing channel is logged and
// reported false; it never affects the other channels or the caller's run.
func (d *Dispatcher) Deliver(ctx context.Context, job model.Job) map[string]bool {
	results := make(map[string]bool, len(d.channels))
	for _, ch := range d.channels {
		err := ch.Send(ctx, job)
		if err != nil {
			d.logger.Error("notification delivery failed",
				"channel", ch.Name(),
				"title", job.Title,
				"company", job.Company,
				"error", err,
			)
		}
		results[ch.Name()] = err == nil
	}
	return results
}

// SendTest delivers a dummy job through the dispatcher to verify channel
// configuration end to end.
func SendTest(ctx context.Context, d model.Dispatcher) map[string]bool {
	now := time.Now()
	job := model.Job{
		ExternalID: "test-001",
		Title:      "Test Notification (integration verified)",
		Company:    "Jobscout Test",
		Location:   "Everywhere",
		URL:        "https://example.com/jobs/test",
		PostedAt:   &now,
	}
	return d.Deliver(ctx, job)
}
