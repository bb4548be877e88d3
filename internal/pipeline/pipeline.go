// Package pipeline drives one ingestion run:
// fetch → normalize → dedupe → persist → notify, per configured keyword.
// Failures local to one keyword, one job, or one notification channel are
// contained and logged; only a setup failure aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"jobscout/internal/dedup"
	"jobscout/internal/model"
)

// Classifier is the slice of the deduplicator the pipeline needs.
type Classifier interface {
	Classify(ctx context.Context, job *model.Job) (dedup.Result, error)
}

// Stats summarizes one run. NewJobs and Duplicates are the run's primary
// observable outcome alongside the store's new rows.
type Stats struct {
	RunID      string
	Keywords   int
	Fetched    int
	NewJobs    int
	Duplicates int
	Errors     int
}

// Pipeline owns the full ingestion run for one source.
type Pipeline struct {
	sourceName string
	baseURL    string
	fetcher    model.Fetcher
	classifier Classifier
	store      model.Store
	dispatcher model.Dispatcher
	keywords   []string
	pause      time.Duration // delay after each keyword fetch, provider pacing policy
	logger     *slog.Logger
}

// New creates a pipeline wired with all its dependencies.
func New(
	sourceName string,
	baseURL string,
	fetcher model.Fetcher,
	classifier Classifier,
	store model.Store,
	dispatcher model.Dispatcher,
	keywords []string,
	pause time.Duration,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sourceName: sourceName,
		baseURL:    baseURL,
		fetcher:    fetcher,
		classifier: classifier,
		store:      store,
		dispatcher: dispatcher,
		keywords:   keywords,
		pause:      pause,
		logger:     logger,
	}
}

// Run executes one complete pass over all configured keywords. It returns an
// error only for unrecoverable setup failures (store unreachable, source not
// registrable); everything after setup is contained per item. The run may be
// cancelled between keyword iterations without corrupting state — committed
// rows stay committed.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	stats := Stats{RunID: uuid.NewString(), Keywords: len(p.keywords)}
	logger := p.logger.With("run_id", stats.RunID)

	sourceID, err := p.ensureSource(ctx)
	if err != nil {
		return stats, fmt.Errorf("pipeline setup: %w", err)
	}

	logger.Info("starting ingestion run", "source", p.sourceName, "keywords", len(p.keywords))

	for i, keyword := range p.keywords {
		if ctx.Err() != nil {
			logger.Info("run cancelled", "remaining_keywords", len(p.keywords)-i)
			break
		}

		p.runKeyword(ctx, keyword, sourceID, &stats, logger)

		// Fixed pacing between keyword fetches. A pipeline policy, not an
		// adapter property, so the same adapter can run under different pacing.
		if i < len(p.keywords)-1 && p.pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(p.pause):
			}
		}
	}

	if err := p.store.TouchSource(ctx, sourceID); err != nil {
		logger.Error("updating source timestamp failed", "error", err)
	}

	logger.Info("run complete",
		"fetched", stats.Fetched,
		"new", stats.NewJobs,
		"duplicates", stats.Duplicates,
		"errors", stats.Errors,
	)
	return stats, nil
}

// ensureSource looks up the provider row, creating it on first run.
func (p *Pipeline) ensureSource(ctx context.Context) (int64, error) {
	src, err := p.store.GetSourceByName(ctx, p.sourceName)
	if err != nil {
		return 0, err
	}
	if src != nil {
		return src.ID, nil
	}
	id, err := p.store.InsertSource(ctx, p.sourceName, p.baseURL, nil)
	if err != nil {
		return 0, fmt.Errorf("registering source %q: %w", p.sourceName, err)
	}
	return id, nil
}

// runKeyword fetches and processes one keyword. A fetch error skips the
// keyword; a job error skips the job. The run continues either way.
func (p *Pipeline) runKeyword(ctx context.Context, keyword string, sourceID int64, stats *Stats, logger *slog.Logger) {
	jobs, err := p.fetcher.Fetch(ctx, keyword)
	if err != nil {
		logger.Error("fetch failed, skipping keyword", "keyword", keyword, "error", err)
		stats.Errors++
		return
	}

	logger.Debug("fetched keyword", "keyword", keyword, "jobs", len(jobs))
	stats.Fetched += len(jobs)

	for _, job := range jobs {
		job.SourceID = sourceID
		if err := p.processJob(ctx, &job, stats, logger); err != nil {
			logger.Error("job processing failed",
				"keyword", keyword,
				"title", job.Title,
				"company", job.Company,
				"error", err,
			)
			stats.Errors++
		}
	}
}

// processJob classifies, persists, and notifies for a single job.
func (p *Pipeline) processJob(ctx context.Context, job *model.Job, stats *Stats, logger *slog.Logger) error {
	res, err := p.classifier.Classify(ctx, job)
	if err != nil {
		return fmt.Errorf("classifying: %w", err)
	}
	if res.Duplicate {
		stats.Duplicates++
		return nil
	}

	id, err := p.store.InsertJobIfNew(ctx, *job)
	if err != nil {
		return fmt.Errorf("persisting: %w", err)
	}
	if id == 0 {
		// Uniqueness backstop fired: same (source, external id) already stored.
		stats.Duplicates++
		logger.Debug("duplicate caught at persistence", "title", job.Title)
		return nil
	}

	job.ID = id
	stats.NewJobs++
	logger.Info("new job found", "title", job.Title, "company", job.Company, "location", job.Location)

	// A failed delivery never un-persists the job or stops the run; only
	// confirmed deliveries land in the notification log.
	results := p.dispatcher.Deliver(ctx, *job)
	for channel, ok := range results {
		if !ok {
			continue
		}
		if err := p.store.RecordNotification(ctx, job.ID, channel); err != nil {
			logger.Error("recording notification failed", "channel", channel, "job_id", job.ID, "error", err)
		}
	}

	return nil
}
