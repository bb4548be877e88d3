package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"jobscout/internal/model"
)

// Ensure DiscordChannel implements Channel.
var _ Channel = (*DiscordChannel)(nil)

// DiscordChannel posts new-job alerts to a Discord channel via webhook.
type DiscordChannel struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordChannel returns a channel that posts each job as a Discord embed.
func NewDiscordChannel(webhookURL string, httpClient *http.Client) *DiscordChannel {
	return &DiscordChannel{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) Send(ctx context.Context, job model.Job) error {
	body, err := json.Marshal(buildDiscordPayload(job))
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// Discord rate limit — honor Retry-After once.
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(secs) * time.Second):
		}

		retry, err := c.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to discord (retry): %w", err)
		}
		defer retry.Body.Close()
		if retry.StatusCode >= 300 {
			return fmt.Errorf("discord returned %d on retry", retry.StatusCode)
		}
		return nil
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord returned %d", resp.StatusCode)
	}
	return nil
}

func (c *DiscordChannel) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("post to discord: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post to discord: %w", err)
	}
	return resp, nil
}

// Webhook payload types.

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	URL         string         `json:"url"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func buildDiscordPayload(job model.Job) discordPayload {
	orNA := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}

	embed := discordEmbed{
		Title:       job.Title,
		Description: fmt.Sprintf("**%s** - %s", job.Company, orNA(job.Location)),
		Color:       3447003, // blue
		Fields: []discordField{
			{Name: "Type", Value: orNA(job.JobType), Inline: true},
			{Name: "Experience", Value: orNA(job.Experience), Inline: true},
		},
		URL: job.URL,
	}

	return discordPayload{
		Username: "Jobscout Bot",
		Embeds:   []discordEmbed{embed},
	}
}
