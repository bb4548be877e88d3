// Package dedup decides whether an incoming posting is already known.
// The check runs in two tiers: an exact fingerprint lookup (indexed, cheap),
// then an optional fuzzy scan over a bounded window of recently stored jobs
// to recover postings a provider reformatted between polling cycles.
package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"jobscout/internal/model"
)

// DefaultThreshold is the title-similarity bar for the fuzzy tier.
const DefaultThreshold = 0.85

// DefaultWindow is the number of recent active jobs the fuzzy tier scans.
const DefaultWindow = 100

// Lookup is the slice of the store the classifier needs.
type Lookup interface {
	JobExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error)
	RecentActiveJobs(ctx context.Context, limit int) ([]model.Job, error)
}

// Result is the outcome of classifying one job.
type Result struct {
	Duplicate   bool
	Fingerprint string
	Match       string // "fingerprint" or "fuzzy"; empty when the job is new
}

// Classifier classifies incoming jobs as new or duplicate against the store.
type Classifier struct {
	lookup    Lookup
	threshold float64
	window    int
	fuzzy     bool
	logger    *slog.Logger
}

// NewClassifier creates a classifier. window is the fuzzy-tier recency bound;
// fuzzy matching is skipped entirely when enabled is false or window is 0.
func NewClassifier(lookup Lookup, threshold float64, window int, enabled bool, logger *slog.Logger) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{
		lookup:    lookup,
		threshold: threshold,
		window:    window,
		fuzzy:     enabled && window > 0,
		logger:    logger,
	}
}

// Classify computes the job's fingerprint, attaches it to the record, and
// reports whether an equivalent active posting is already stored. Callers
// must persist the job with the attached fingerprint.
func (c *Classifier) Classify(ctx context.Context, job *model.Job) (Result, error) {
	fp := Fingerprint(*job)
	job.Fingerprint = fp

	exists, err := c.lookup.JobExistsByFingerprint(ctx, fp)
	if err != nil {
		return Result{}, fmt.Errorf("fingerprint lookup: %w", err)
	}
	if exists {
		c.logger.Debug("duplicate by fingerprint", "title", job.Title, "company", job.Company)
		return Result{Duplicate: true, Fingerprint: fp, Match: "fingerprint"}, nil
	}

	if c.fuzzy {
		recent, err := c.lookup.RecentActiveJobs(ctx, c.window)
		if err != nil {
			return Result{}, fmt.Errorf("loading recent jobs: %w", err)
		}
		for _, existing := range recent {
			if Similar(*job, existing, c.threshold) {
				c.logger.Debug("duplicate by fuzzy match",
					"title", job.Title,
					"company", job.Company,
					"matched_title", existing.Title,
				)
				return Result{Duplicate: true, Fingerprint: fp, Match: "fuzzy"}, nil
			}
		}
	}

	return Result{Fingerprint: fp}, nil
}
