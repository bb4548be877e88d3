// Package adapter implements source adapters: provider-specific fetchers that
// map raw listings into the canonical Job record. New providers are added by
// implementing model.Fetcher, not by touching the pipeline.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"jobscout/internal/model"
)

// AdzunaBaseURL is the Adzuna jobs API root, also used as the source's
// base_url when it is registered in the store.
const AdzunaBaseURL = "https://api.adzuna.com/v1/api/jobs"

const adzunaPageSize = 50

// adzunaJob is a single posting in the Adzuna search response.
type adzunaJob struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Company      adzunaCompany  `json:"company"`
	Location     adzunaLocation `json:"location"`
	Description  string         `json:"description"`
	RedirectURL  string         `json:"redirect_url"`
	ContractType string         `json:"contract_type"`
	SalaryMin    *float64       `json:"salary_min"`
	SalaryMax    *float64       `json:"salary_max"`
	Created      string         `json:"created"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// adzunaResponse is the top-level Adzuna search response.
type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

// AdzunaAdapter fetches postings from the Adzuna search API.
type AdzunaAdapter struct {
	appID   string
	appKey  string
	country string // Adzuna country code path segment, e.g. "us"
	baseURL string
	client  *http.Client
	limiter *HostLimiter
	logger  *slog.Logger
}

var _ model.Fetcher = (*AdzunaAdapter)(nil)

// NewAdzunaAdapter creates an adapter for one Adzuna country endpoint.
// The limiter paces requests to the provider host and may be shared across
// adapters.
func NewAdzunaAdapter(appID, appKey, country string, client *http.Client, limiter *HostLimiter, logger *slog.Logger) *AdzunaAdapter {
	return &AdzunaAdapter{
		appID:   appID,
		appKey:  appKey,
		country: country,
		baseURL: AdzunaBaseURL,
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
}

// Fetch retrieves postings matching the keyword and normalizes them into
// canonical Jobs. Malformed entries normalize to default fields rather than
// failing the fetch.
func (a *AdzunaAdapter) Fetch(ctx context.Context, keyword string) ([]model.Job, error) {
	if a.appID == "" || a.appKey == "" {
		return nil, fmt.Errorf("adzuna fetch: credentials not configured")
	}

	endpoint := fmt.Sprintf("%s/%s/search/1", a.baseURL, a.country)

	if err := a.limiter.WaitURL(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("adzuna fetch %q: %w", keyword, err)
	}

	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("what", keyword)
	params.Set("results_per_page", fmt.Sprintf("%d", adzunaPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch %q: %w", keyword, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna fetch %q: %w", keyword, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		})
	}

	var azResp adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&azResp); err != nil {
		return nil, fmt.Errorf("adzuna fetch %q: decoding response: %w", keyword, err)
	}

	jobs := make([]model.Job, 0, len(azResp.Results))
	for _, raw := range azResp.Results {
		jobs = append(jobs, normalizeAdzunaJob(raw))
	}

	a.logger.Debug("adzuna fetch complete", "keyword", keyword, "jobs", len(jobs))
	return jobs, nil
}

// normalizeAdzunaJob maps one raw Adzuna posting into the canonical Job.
// Missing fields resolve to defined defaults; it never fails, because a
// partially-unusable posting should still be counted, not crash the run.
func normalizeAdzunaJob(raw adzunaJob) model.Job {
	company := raw.Company.DisplayName
	if company == "" {
		company = "Unknown"
	}

	job := model.Job{
		ExternalID:     raw.ID,
		Title:          raw.Title,
		Company:        company,
		Location:       raw.Location.DisplayName,
		Description:    extractText(raw.Description),
		JobType:        raw.ContractType,
		SalaryMin:      raw.SalaryMin,
		SalaryMax:      raw.SalaryMax,
		SalaryCurrency: "USD",
		URL:            raw.RedirectURL,
	}

	if raw.Created != "" {
		if t, err := time.Parse(time.RFC3339, raw.Created); err == nil {
			job.PostedAt = &t
		}
	}

	return job
}
