package adapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *AdzunaAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := NewAdzunaAdapter("app-id", "app-key", "us", srv.Client(), NewHostLimiter(1000, 10), discardLogger())
	a.baseURL = srv.URL
	return a
}

func TestFetch_Success(t *testing.T) {
	payload := `{
		"results": [
			{
				"id": "4321765123",
				"title": "Python Developer",
				"company": {"display_name": "Acme"},
				"location": {"display_name": "Austin, TX"},
				"description": "Build &amp; ship <b>backend</b> services",
				"redirect_url": "https://www.adzuna.com/details/4321765123",
				"contract_type": "permanent",
				"salary_min": 90000,
				"salary_max": 120000,
				"created": "2026-08-20T09:00:00Z"
			},
			{
				"id": "4321765999",
				"title": "Backend Engineer",
				"company": {},
				"location": {},
				"created": "not-a-date"
			}
		]
	}`
	var gotQuery string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	})

	jobs, err := a.Fetch(context.Background(), "python developer")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}

	first := jobs[0]
	if first.ExternalID != "4321765123" || first.Title != "Python Developer" || first.Company != "Acme" {
		t.Errorf("first job = %+v", first)
	}
	if first.Description != "Build & ship backend services" {
		t.Errorf("Description = %q, want tags stripped and entities unescaped", first.Description)
	}
	if first.SalaryMin == nil || *first.SalaryMin != 90000 {
		t.Errorf("SalaryMin = %v, want 90000", first.SalaryMin)
	}
	if first.SalaryCurrency != "USD" {
		t.Errorf("SalaryCurrency = %q, want USD", first.SalaryCurrency)
	}
	if first.PostedAt == nil {
		t.Error("PostedAt not parsed")
	}

	// Malformed entry normalizes to defaults, never errors.
	second := jobs[1]
	if second.Company != "Unknown" {
		t.Errorf("Company = %q, want Unknown for missing display_name", second.Company)
	}
	if second.PostedAt != nil {
		t.Errorf("PostedAt = %v, want nil for unparseable date", second.PostedAt)
	}
	if second.Location != "" || second.URL != "" {
		t.Errorf("second job = %+v, want empty defaults", second)
	}

	for _, want := range []string{"app_id=app-id", "app_key=app-key", "what=python+developer", "results_per_page=50"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestFetch_RateLimitedStatus(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := a.Fetch(context.Background(), "python")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error %v does not wrap HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("RetryAfter = %v, want 30s", httpErr.RetryAfter)
	}
}

func TestFetch_ServerError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := a.Fetch(context.Background(), "python")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("err = %v, want wrapped HTTP 500", err)
	}
}

func TestFetch_MalformedBody(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	})

	if _, err := a.Fetch(context.Background(), "python"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetch_MissingCredentials(t *testing.T) {
	a := NewAdzunaAdapter("", "", "us", http.DefaultClient, NewHostLimiter(1, 1), discardLogger())

	if _, err := a.Fetch(context.Background(), "python"); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestExtractText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<p>hello <b>world</b></p>", "hello world"},
		{"a &amp; b", "a & b"},
		{"  spaced\n\nout  ", "spaced out"},
	}
	for _, tc := range cases {
		if got := extractText(tc.in); got != tc.want {
			t.Errorf("extractText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
