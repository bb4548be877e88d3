// Package scheduler owns the daemon loop: it runs one immediate ingestion
// pass, then repeats on a fixed interval until the context is cancelled.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"jobscout/internal/pipeline"
)

// Runner is the unit of work the scheduler drives once per cycle.
type Runner interface {
	Run(ctx context.Context) (pipeline.Stats, error)
}

// Scheduler triggers ingestion runs on an interval.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs the pipeline at the given interval.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful
// shutdown); a run in progress finishes its current item first.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.cycle(ctx)
		}
	}
}

// cycle runs one ingestion pass. Run failures are logged, never fatal to the
// loop: the next tick gets a fresh attempt.
func (s *Scheduler) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.runner.Run(ctx); err != nil {
		s.logger.Error("ingestion run failed", "error", err)
	}
}
