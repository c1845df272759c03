// Package notification provides the outbound email collaborator: a Mailgun
// HTTP client with a bounded timeout, a no-op fallback for unconfigured
// environments, and a small template engine for message bodies.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Mailgun sender
// ---------------------------------------------------------------------------

// MailgunSender delivers email through the Mailgun messages API. Any
// non-success status is returned as an error; callers decide whether the
// failure is fatal (the consultation workflow treats it as soft).
type MailgunSender struct {
	client *resty.Client
	domain string
	from   string
}

// NewMailgunSender creates a sender for the given Mailgun domain,
// authenticating with the static "api:<key>" credential pair.
func NewMailgunSender(baseURL, domain, apiKey, from string) *MailgunSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetBasicAuth("api", apiKey)

	return &MailgunSender{
		client: client,
		domain: domain,
		from:   from,
	}
}

func (s *MailgunSender) SendEmail(ctx context.Context, to, subject, body string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"from":    s.from,
			"to":      to,
			"subject": subject,
			"text":    body,
		}).
		Post(fmt.Sprintf("/v3/%s/messages", s.domain))
	if err != nil {
		return fmt.Errorf("mailgun request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mailgun returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// ---------------------------------------------------------------------------
// No-op sender
// ---------------------------------------------------------------------------

// NoopSender logs instead of sending. Used when Mailgun is not configured.
type NoopSender struct {
	Logger zerolog.Logger
}

func (s *NoopSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.Logger.Info().Str("to", to).Str("subject", subject).Msg("email sending disabled, skipping")
	return nil
}

// ---------------------------------------------------------------------------
// Template engine
// ---------------------------------------------------------------------------

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "consultation-received",
			Name:    "Consultation Received",
			Subject: "We received your eConsultation",
			Body: "Dear {{first_name}}, thank you for submitting your consultation about {{concern}}. " +
				"Our team will review your answers and get back to you shortly.",
		},
		{
			ID:      "welcome",
			Name:    "Welcome",
			Subject: "Welcome to DermHub",
			Body:    "Dear {{first_name}}, your DermHub account is ready. Log in any time to start an eConsultation.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}
