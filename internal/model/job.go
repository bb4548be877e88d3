package model

import (
	"context"
	"time"
)

// Job is the canonical, provider-agnostic representation of a single posting.
// Every source adapter must produce this shape. A Job is immutable after
// insertion except for Active, which is used for soft-removal.
type Job struct {
	ID             int64      `db:"id"`
	SourceID       int64      `db:"source_id"`
	ExternalID     string     `db:"external_id"` // provider-assigned id, unique per source
	Title          string     `db:"title"`
	Company        string     `db:"company"`
	Location       string     `db:"location"`
	Description    string     `db:"description"`
	JobType        string     `db:"job_type"`
	Experience     string     `db:"experience_level"`
	SalaryMin      *float64   `db:"salary_min"` // nullable, providers often omit salary
	SalaryMax      *float64   `db:"salary_max"`
	SalaryCurrency string     `db:"salary_currency"`
	URL            string     `db:"url"`
	PostedAt       *time.Time `db:"posted_date"`
	ScrapedAt      time.Time  `db:"scraped_at"`
	Active         bool       `db:"is_active"`
	Fingerprint    string     `db:"content_hash"` // set by the deduplicator before insert
}

// Source is a listings provider. Rows are created lazily at run start and
// never deleted.
type Source struct {
	ID            int64      `db:"id"`
	Name          string     `db:"name"`
	BaseURL       string     `db:"base_url"`
	APIKey        *string    `db:"api_key"`
	Active        bool       `db:"is_active"`
	LastScrapedAt *time.Time `db:"last_scraped_at"`
	CreatedAt     time.Time  `db:"created_at"`
}

// Application is the operator's record of having applied to a stored Job.
type Application struct {
	ID        int64     `db:"id"`
	JobID     int64     `db:"job_id"`
	Status    string    `db:"status"`
	AppliedAt time.Time `db:"applied_at"`
	Notes     string    `db:"notes"`
}

// ApplicationDetail joins an Application with the job fields the listing
// commands display.
type ApplicationDetail struct {
	Application
	Title   string `db:"title"`
	Company string `db:"company"`
	URL     string `db:"url"`
}

// Notification is an append-only audit record of one confirmed channel
// delivery for a Job.
type Notification struct {
	ID      int64     `db:"id"`
	JobID   int64     `db:"job_id"`
	Channel string    `db:"channel"`
	SentAt  time.Time `db:"sent_at"`
	Status  string    `db:"status"`
}

// Fetcher fetches postings for a search keyword from one provider and maps
// them into canonical Jobs. Implementations own provider-side pacing and
// request timeouts.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string) ([]Job, error)
}

// Store is the persistence surface consumed by the ingestion pipeline and the
// CLI query commands.
type Store interface {
	GetSourceByName(ctx context.Context, name string) (*Source, error)
	InsertSource(ctx context.Context, name, baseURL string, apiKey *string) (int64, error)
	TouchSource(ctx context.Context, id int64) error

	// InsertJobIfNew inserts the job unless a row with the same
	// (source_id, external_id) already exists. Returns (0, nil) on that
	// conflict — the persistence-level duplicate backstop, not an error.
	InsertJobIfNew(ctx context.Context, job Job) (int64, error)
	JobExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error)
	RecentActiveJobs(ctx context.Context, limit int) ([]Job, error)

	RecordNotification(ctx context.Context, jobID int64, channel string) error
}

// Dispatcher delivers a new-job alert over one or more channels and reports
// per-channel success. Delivery failures are the dispatcher's to log; the
// pipeline only inspects the result map.
type Dispatcher interface {
	Deliver(ctx context.Context, job Job) map[string]bool
}
