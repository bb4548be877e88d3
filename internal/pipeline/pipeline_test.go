package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"jobscout/internal/dedup"
	"jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory model.Store for pipeline tests.
type memStore struct {
	sources       map[string]*model.Source
	nextSourceID  int64
	jobs          []model.Job
	nextJobID     int64
	notifications map[int64][]string

	sourceErr error // forced failure for GetSourceByName
	insertErr error // forced failure for InsertJobIfNew
	touched   int
}

func newMemStore() *memStore {
	return &memStore{
		sources:       make(map[string]*model.Source),
		nextSourceID:  1,
		nextJobID:     1,
		notifications: make(map[int64][]string),
	}
}

func (m *memStore) GetSourceByName(_ context.Context, name string) (*model.Source, error) {
	if m.sourceErr != nil {
		return nil, m.sourceErr
	}
	return m.sources[name], nil
}

func (m *memStore) InsertSource(_ context.Context, name, baseURL string, apiKey *string) (int64, error) {
	src := &model.Source{ID: m.nextSourceID, Name: name, BaseURL: baseURL, APIKey: apiKey, Active: true}
	m.nextSourceID++
	m.sources[name] = src
	return src.ID, nil
}

func (m *memStore) TouchSource(_ context.Context, _ int64) error {
	m.touched++
	return nil
}

func (m *memStore) InsertJobIfNew(_ context.Context, job model.Job) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	for _, j := range m.jobs {
		if j.SourceID == job.SourceID && j.ExternalID == job.ExternalID {
			return 0, nil
		}
	}
	job.ID = m.nextJobID
	m.nextJobID++
	job.Active = true
	m.jobs = append(m.jobs, job)
	return job.ID, nil
}

func (m *memStore) JobExistsByFingerprint(_ context.Context, fingerprint string) (bool, error) {
	for _, j := range m.jobs {
		if j.Active && j.Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) RecentActiveJobs(_ context.Context, limit int) ([]model.Job, error) {
	var out []model.Job
	for i := len(m.jobs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.jobs[i].Active {
			out = append(out, m.jobs[i])
		}
	}
	return out, nil
}

func (m *memStore) RecordNotification(_ context.Context, jobID int64, channel string) error {
	m.notifications[jobID] = append(m.notifications[jobID], channel)
	return nil
}

// keywordFetcher returns canned jobs or errors keyed by keyword.
type keywordFetcher struct {
	jobs    map[string][]model.Job
	errs    map[string]error
	fetched []string
}

func (f *keywordFetcher) Fetch(_ context.Context, keyword string) ([]model.Job, error) {
	f.fetched = append(f.fetched, keyword)
	if err := f.errs[keyword]; err != nil {
		return nil, err
	}
	return f.jobs[keyword], nil
}

// stubDispatcher reports a fixed per-channel outcome and counts deliveries.
type stubDispatcher struct {
	results   map[string]bool
	delivered []model.Job
}

func (d *stubDispatcher) Deliver(_ context.Context, job model.Job) map[string]bool {
	d.delivered = append(d.delivered, job)
	return d.results
}

func testJob(externalID, title, company string) model.Job {
	return model.Job{
		ExternalID: externalID,
		Title:      title,
		Company:    company,
		Location:   "Remote",
		URL:        "https://example.com/" + externalID,
	}
}

func newTestPipeline(store *memStore, fetcher model.Fetcher, dispatcher model.Dispatcher, keywords []string) *Pipeline {
	logger := discardLogger()
	classifier := dedup.NewClassifier(store, dedup.DefaultThreshold, dedup.DefaultWindow, true, logger)
	return New("adzuna", "https://api.example.com", fetcher, classifier, store, dispatcher, keywords, 0, logger)
}

func TestRun_PersistsAndNotifiesNewJobs(t *testing.T) {
	store := newMemStore()
	fetcher := &keywordFetcher{jobs: map[string][]model.Job{
		"golang": {testJob("a1", "Backend Engineer", "Acme"), testJob("a2", "Platform Engineer", "Initech")},
		"python": {testJob("a3", "Data Engineer", "Hooli")},
	}}
	dispatcher := &stubDispatcher{results: map[string]bool{"log": true}}

	p := newTestPipeline(store, fetcher, dispatcher, []string{"golang", "python"})
	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Fetched != 3 || stats.NewJobs != 3 || stats.Duplicates != 0 || stats.Errors != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.RunID == "" {
		t.Fatal("expected a run id")
	}
	if len(store.jobs) != 3 {
		t.Fatalf("expected 3 stored jobs, got %d", len(store.jobs))
	}
	for _, j := range store.jobs {
		if j.SourceID != 1 {
			t.Errorf("job %s: source id = %d, want 1", j.ExternalID, j.SourceID)
		}
		if j.Fingerprint == "" {
			t.Errorf("job %s: fingerprint not set before insert", j.ExternalID)
		}
		if got := store.notifications[j.ID]; len(got) != 1 || got[0] != "log" {
			t.Errorf("job %s: notifications = %v, want [log]", j.ExternalID, got)
		}
	}
	if len(dispatcher.delivered) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(dispatcher.delivered))
	}
	if store.touched != 1 {
		t.Fatalf("expected source touched once, got %d", store.touched)
	}
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	store := newMemStore()
	fetcher := &keywordFetcher{jobs: map[string][]model.Job{
		"golang": {testJob("a1", "Backend Engineer", "Acme"), testJob("a2", "Platform Engineer", "Initech")},
	}}
	dispatcher := &stubDispatcher{results: map[string]bool{"log": true}}
	p := newTestPipeline(store, fetcher, dispatcher, []string{"golang"})

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if stats.NewJobs != 0 || stats.Duplicates != 2 {
		t.Fatalf("second run stats: %+v, want 0 new and 2 duplicates", stats)
	}
	if len(store.jobs) != 2 {
		t.Fatalf("expected 2 stored jobs after rerun, got %d", len(store.jobs))
	}
	if len(dispatcher.delivered) != 2 {
		t.Fatalf("expected no deliveries on rerun, total %d", len(dispatcher.delivered))
	}
	if len(store.sources) != 1 {
		t.Fatalf("expected 1 source after rerun, got %d", len(store.sources))
	}
}

func TestRun_CrossKeywordDuplicateCaught(t *testing.T) {
	// Same posting surfaces under two keywords with different provider ids.
	// The fingerprint tier must catch the second occurrence within the run.
	store := newMemStore()
	fetcher := &keywordFetcher{jobs: map[string][]model.Job{
		"golang":  {testJob("a1", "Backend Engineer", "Acme")},
		"backend": {testJob("b9", "Backend Engineer", "Acme")},
	}}
	dispatcher := &stubDispatcher{results: map[string]bool{"log": true}}
	p := newTestPipeline(store, fetcher, dispatcher, []string{"golang", "backend"})

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.NewJobs != 1 || stats.Duplicates != 1 {
		t.Fatalf("stats: %+v, want 1 new and 1 duplicate", stats)
	}
	if len(store.jobs) != 1 {
		t.Fatalf("expected 1 stored job, got %d", len(store.jobs))
	}
}

func TestRun_FetchFailureSkipsKeywordOnly(t *testing.T) {
	store := newMemStore()
	fetcher := &keywordFetcher{
		jobs: map[string][]model.Job{"python": {testJob("a3", "Data Engineer", "Hooli")}},
		errs: map[string]error{"java": errors.New("upstream 503")},
	}
	dispatcher := &stubDispatcher{results: map[string]bool{"log": true}}
	p := newTestPipeline(store, fetcher, dispatcher, []string{"java", "python"})

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Errors != 1 {
		t.Fatalf("errors = %d, want 1", stats.Errors)
	}
	if stats.NewJobs != 1 || len(store.jobs) != 1 {
		t.Fatalf("expected the surviving keyword's job stored, stats %+v", stats)
	}
	if len(fetcher.fetched) != 2 {
		t.Fatalf("expected both keywords fetched, got %v", fetcher.fetched)
	}
}

func TestRun_FailedDeliveryKeepsJob(t *testing.T) {
	store := newMemStore()
	fetcher := &keywordFetcher{jobs: map[string][]model.Job{
		"golang": {testJob("a1", "Backend Engineer", "Acme")},
	}}
	dispatcher := &stubDispatcher{results: map[string]bool{"email": false, "log": true}}
	p := newTestPipeline(store, fetcher, dispatcher, []string{"golang"})

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.NewJobs != 1 || len(store.jobs) != 1 {
		t.Fatalf("job must persist despite delivery failure, stats %+v", stats)
	}
	got := store.notifications[store.jobs[0].ID]
	if len(got) != 1 || got[0] != "log" {
		t.Fatalf("notifications = %v, want only the successful channel", got)
	}
}

func TestRun_InsertFailureCountsError(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("disk full")
	fetcher := &keywordFetcher{jobs: map[string][]model.Job{
		"golang": {testJob("a1", "Backend Engineer", "Acme")},
	}}
	dispatcher := &stubDispatcher{results: map[string]bool{"log": true}}
	p := newTestPipeline(store, fetcher, dispatcher, []string{"golang"})

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should contain item errors, got %v", err)
	}
	if stats.Errors != 1 || stats.NewJobs != 0 {
		t.Fatalf("stats: %+v, want 1 error and 0 new", stats)
	}
	if len(dispatcher.delivered) != 0 {
		t.Fatal("must not notify for a job that failed to persist")
	}
}

func TestRun_SetupFailureAborts(t *testing.T) {
	store := newMemStore()
	store.sourceErr = errors.New("database locked")
	fetcher := &keywordFetcher{}
	p := newTestPipeline(store, fetcher, &stubDispatcher{}, []string{"golang"})

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected setup error")
	}
	if len(fetcher.fetched) != 0 {
		t.Fatal("must not fetch after setup failure")
	}
}

func TestRun_CancellationStopsBetweenKeywords(t *testing.T) {
	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &cancellingFetcher{cancel: cancel}
	p := New("adzuna", "https://api.example.com", fetcher,
		dedup.NewClassifier(store, dedup.DefaultThreshold, dedup.DefaultWindow, true, discardLogger()),
		store, &stubDispatcher{results: map[string]bool{"log": true}},
		[]string{"one", "two", "three"}, time.Millisecond, discardLogger())

	stats, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected 1 fetch before cancellation, got %d", fetcher.calls)
	}
	if stats.Fetched != 1 {
		t.Fatalf("stats.Fetched = %d, want 1", stats.Fetched)
	}
}

// cancellingFetcher cancels the run context during its first fetch.
type cancellingFetcher struct {
	cancel context.CancelFunc
	calls  int
}

func (f *cancellingFetcher) Fetch(_ context.Context, keyword string) ([]model.Job, error) {
	f.calls++
	f.cancel()
	return []model.Job{testJob(fmt.Sprintf("x%d", f.calls), "Backend Engineer "+keyword, "Acme")}, nil
}
