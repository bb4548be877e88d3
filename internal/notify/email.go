package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"jobscout/internal/config"
	"jobscout/internal/model"
)

// Ensure EmailChannel implements Channel.
var _ Channel = (*EmailChannel)(nil)

// EmailChannel sends one alert email per job over SMTP with STARTTLS.
type EmailChannel struct {
	cfg  config.EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailChannel returns a channel that emails each job to the configured
// recipient.
func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg, send: smtp.SendMail}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(_ context.Context, job model.Job) error {
	if c.cfg.From == "" || c.cfg.To == "" {
		return fmt.Errorf("email channel not configured")
	}

	addr := fmt.Sprintf("%s:%d", c.cfg.SMTPHost, c.cfg.SMTPPort)
	var auth smtp.Auth
	if c.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", c.cfg.SMTPUser, c.cfg.SMTPPassword, c.cfg.SMTPHost)
	}

	msg := buildEmailMessage(c.cfg.From, c.cfg.To, job)
	if err := c.send(addr, auth, c.cfg.From, []string{c.cfg.To}, msg); err != nil {
		return fmt.Errorf("sending email via %s: %w", addr, err)
	}
	return nil
}

// buildEmailMessage assembles a multipart/alternative message with plain-text
// and HTML bodies.
func buildEmailMessage(from, to string, job model.Job) []byte {
	const boundary = "jobscout-alt-boundary"

	orNA := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}
	salary := "N/A"
	if job.SalaryMin != nil || job.SalaryMax != nil {
		lo, hi := "?", "?"
		if job.SalaryMin != nil {
			lo = fmt.Sprintf("%.0f", *job.SalaryMin)
		}
		if job.SalaryMax != nil {
			hi = fmt.Sprintf("%.0f", *job.SalaryMax)
		}
		salary = fmt.Sprintf("%s - %s %s", lo, hi, job.SalaryCurrency)
	}

	text := fmt.Sprintf(`New job posting found!

Title: %s
Company: %s
Location: %s
Type: %s
Salary: %s

Apply here: %s

---
Sent by jobscout
`, job.Title, job.Company, orNA(job.Location), orNA(job.JobType), salary, job.URL)

	html := fmt.Sprintf(`<html>
  <body>
    <h2>🎯 New Job Posting</h2>
    <p><strong>%s</strong> at <strong>%s</strong></p>
    <ul>
      <li><strong>Location:</strong> %s</li>
      <li><strong>Type:</strong> %s</li>
      <li><strong>Salary:</strong> %s</li>
    </ul>
    <p><a href="%s">Apply Now</a></p>
  </body>
</html>
`, job.Title, job.Company, orNA(job.Location), orNA(job.JobType), salary, job.URL)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: 🎯 New Job: %s at %s\r\n", job.Title, job.Company)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
