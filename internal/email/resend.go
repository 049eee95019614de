// Package email sends transactional mail through the Resend HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/notify"
)

const defaultEndpoint = "https://api.resend.com/emails"

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Sender posts messages to the Resend API.  It implements notify.Sink.
type Sender struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

// NewSender returns nil when cfg lacks an API key or sender address so
// that notifications are disabled rather than failing.
func NewSender(cfg config.EmailConfig, timeout time.Duration) *Sender {
	if !cfg.Enabled() {
		return nil
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Deliver sends m.  Any non-2xx answer is an error.
func (s *Sender) Deliver(ctx context.Context, m notify.Message) error {
	body, err := json.Marshal(resendEmail{
		From:    s.from,
		To:      []string{m.To},
		Subject: m.Subject,
		HTML:    m.HTML,
		Text:    m.Text,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if m.ID != "" {
		req.Header.Set("Idempotency-Key", m.ID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api: %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
