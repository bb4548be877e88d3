// Package store owns all durable state: sources, jobs, applications, and the
// notification audit log, persisted in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"jobscout/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL UNIQUE,
	base_url        TEXT NOT NULL,
	api_key         TEXT,
	is_active       BOOLEAN NOT NULL DEFAULT 1,
	last_scraped_at TIMESTAMP,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS jobs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id        INTEGER NOT NULL,
	external_id      TEXT NOT NULL,
	title            TEXT NOT NULL,
	company          TEXT NOT NULL,
	location         TEXT NOT NULL,
	description      TEXT NOT NULL,
	job_type         TEXT NOT NULL DEFAULT '',
	experience_level TEXT NOT NULL DEFAULT '',
	salary_min       REAL,
	salary_max       REAL,
	salary_currency  TEXT NOT NULL DEFAULT 'USD',
	url              TEXT NOT NULL,
	posted_date      TIMESTAMP,
	scraped_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	is_active        BOOLEAN NOT NULL DEFAULT 1,
	content_hash     TEXT NOT NULL DEFAULT '',

	FOREIGN KEY (source_id) REFERENCES sources(id),
	UNIQUE (source_id, external_id)
);

CREATE INDEX IF NOT EXISTS idx_jobs_title ON jobs(title);
CREATE INDEX IF NOT EXISTS idx_jobs_location ON jobs(location);
CREATE INDEX IF NOT EXISTS idx_jobs_posted_date ON jobs(posted_date DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);
CREATE INDEX IF NOT EXISTS idx_jobs_content_hash ON jobs(content_hash);

CREATE TABLE IF NOT EXISTS applications (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id     INTEGER NOT NULL,
	status     TEXT NOT NULL DEFAULT 'applied',
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	notes      TEXT NOT NULL DEFAULT '',

	FOREIGN KEY (job_id) REFERENCES jobs(id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id  INTEGER NOT NULL,
	channel TEXT NOT NULL,
	sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	status  TEXT NOT NULL DEFAULT 'sent',

	FOREIGN KEY (job_id) REFERENCES jobs(id)
)`

const jobColumns = `id, source_id, external_id, title, company, location, description,
	job_type, experience_level, salary_min, salary_max, salary_currency,
	url, posted_date, scraped_at, is_active, content_hash`

// SQLiteStore implements model.Store on a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ model.Store = (*SQLiteStore)(nil)

// Open opens (or creates) the SQLite database at dbPath, applies the schema,
// and returns a ready store.
func Open(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	// _time_format=sqlite makes the driver store time.Time values in the
	// SQLite datetime format so TIMESTAMP columns round-trip.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite", dbPath)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// SQLite wants a single writer.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// withTx runs fn inside one transaction: commit on success, rollback on any
// error or panic, so no partial writes are ever observable.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetSourceByName returns the source row, or nil if no source has that name.
func (s *SQLiteStore) GetSourceByName(ctx context.Context, name string) (*model.Source, error) {
	var src model.Source
	err := s.db.GetContext(ctx, &src, `SELECT * FROM sources WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up source %q: %w", name, err)
	}
	return &src, nil
}

// InsertSource registers a provider, returning the row id. Inserting an
// existing name is a no-op that returns the existing id.
func (s *SQLiteStore) InsertSource(ctx context.Context, name, baseURL string, apiKey *string) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO sources (name, base_url, api_key, created_at) VALUES (?, ?, ?, ?)`,
			name, baseURL, apiKey, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting source %q: %w", name, err)
		}
		if err := tx.GetContext(ctx, &id, `SELECT id FROM sources WHERE name = ?`, name); err != nil {
			return fmt.Errorf("reading back source %q: %w", name, err)
		}
		return nil
	})
	return id, err
}

// TouchSource stamps the source's last_scraped_at with the current time.
func (s *SQLiteStore) TouchSource(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sources SET last_scraped_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touching source %d: %w", id, err)
	}
	return nil
}

// InsertJobIfNew atomically inserts the job unless a row with the same
// (source_id, external_id) exists. On that conflict it returns (0, nil): the
// uniqueness constraint is the backstop against races that bypass the
// deduplicator, and a conflict is a duplicate, not an error.
func (s *SQLiteStore) InsertJobIfNew(ctx context.Context, job model.Job) (int64, error) {
	if job.ScrapedAt.IsZero() {
		job.ScrapedAt = time.Now().UTC()
	}
	job.Active = true

	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
			INSERT OR IGNORE INTO jobs (
				source_id, external_id, title, company, location, description,
				job_type, experience_level, salary_min, salary_max, salary_currency,
				url, posted_date, scraped_at, is_active, content_hash
			) VALUES (
				:source_id, :external_id, :title, :company, :location, :description,
				:job_type, :experience_level, :salary_min, :salary_max, :salary_currency,
				:url, :posted_date, :scraped_at, :is_active, :content_hash
			)`, job)
		if err != nil {
			return fmt.Errorf("inserting job %q: %w", job.Title, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("inserting job %q: rows affected: %w", job.Title, err)
		}
		if n == 0 {
			// Uniqueness conflict — treated as duplicate.
			id = 0
			return nil
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("inserting job %q: last insert id: %w", job.Title, err)
		}
		return nil
	})
	return id, err
}

// JobExistsByFingerprint reports whether any active job shares the given
// content fingerprint. Backed by the content_hash index.
func (s *SQLiteStore) JobExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one,
		`SELECT 1 FROM jobs WHERE content_hash = ? AND is_active = 1 LIMIT 1`, fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking fingerprint: %w", err)
	}
	return true, nil
}

// RecentActiveJobs returns up to limit active jobs, most recently ingested
// first. This is the fuzzy-match recency window.
func (s *SQLiteStore) RecentActiveJobs(ctx context.Context, limit int) ([]model.Job, error) {
	var jobs []model.Job
	err := s.db.SelectContext(ctx, &jobs,
		`SELECT `+jobColumns+` FROM jobs WHERE is_active = 1 ORDER BY scraped_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent jobs: %w", err)
	}
	return jobs, nil
}

// QueryJobs returns active jobs matching the optional keyword (title,
// description, or company) and location substring filters.
func (s *SQLiteStore) QueryJobs(ctx context.Context, keyword, location string, limit int) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE is_active = 1`
	var args []any

	if keyword != "" {
		query += ` AND (title LIKE ? OR description LIKE ? OR company LIKE ?)`
		term := "%" + keyword + "%"
		args = append(args, term, term, term)
	}
	if location != "" {
		query += ` AND location LIKE ?`
		args = append(args, "%"+location+"%")
	}
	query += ` ORDER BY posted_date DESC LIMIT ?`
	args = append(args, limit)

	var jobs []model.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	return jobs, nil
}

// GetJob returns the job with the given id, or nil if it does not exist.
func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*model.Job, error) {
	var job model.Job
	err := s.db.GetContext(ctx, &job, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading job %d: %w", id, err)
	}
	return &job, nil
}

// DeactivateJob soft-removes a job. Inactive jobs drop out of duplicate
// checks and query results; rows are never deleted.
func (s *SQLiteStore) DeactivateJob(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivating job %d: %w", id, err)
	}
	return nil
}

// TrackApplication records that the operator applied to a job. The job must
// exist and be live.
func (s *SQLiteStore) TrackApplication(ctx context.Context, jobID int64, notes string) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var one int
		if err := tx.GetContext(ctx, &one, `SELECT 1 FROM jobs WHERE id = ?`, jobID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("job %d not found", jobID)
			}
			return fmt.Errorf("checking job %d: %w", jobID, err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO applications (job_id, status, applied_at, notes) VALUES (?, 'applied', ?, ?)`,
			jobID, time.Now().UTC(), notes)
		if err != nil {
			return fmt.Errorf("tracking application for job %d: %w", jobID, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("tracking application for job %d: last insert id: %w", jobID, err)
		}
		return nil
	})
	return id, err
}

// Applications lists tracked applications joined with their job fields,
// newest first, optionally filtered by status.
func (s *SQLiteStore) Applications(ctx context.Context, status string) ([]model.ApplicationDetail, error) {
	query := `
		SELECT a.id, a.job_id, a.status, a.applied_at, a.notes, j.title, j.company, j.url
		FROM applications a
		JOIN jobs j ON a.job_id = j.id`
	var args []any
	if status != "" {
		query += ` WHERE a.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY a.applied_at DESC`

	var apps []model.ApplicationDetail
	if err := s.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return apps, nil
}

// RecordNotification appends one confirmed delivery to the audit log.
func (s *SQLiteStore) RecordNotification(ctx context.Context, jobID int64, channel string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (job_id, channel, sent_at, status) VALUES (?, ?, ?, 'sent')`,
		jobID, channel, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording %s notification for job %d: %w", channel, jobID, err)
	}
	return nil
}

// NotificationsForJob returns the recorded deliveries for one job.
func (s *SQLiteStore) NotificationsForJob(ctx context.Context, jobID int64) ([]model.Notification, error) {
	var ns []model.Notification
	err := s.db.SelectContext(ctx, &ns,
		`SELECT * FROM notifications WHERE job_id = ? ORDER BY sent_at, id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications for job %d: %w", jobID, err)
	}
	return ns, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
