// Package notify delivers notification messages over email and SMS.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
)

const defaultResendURL = "https://api.resend.com"

type Option func(*options)

type options struct {
	httpClient *http.Client
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func buildOptions(opts []Option) options {
	o := options{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ResendEmail sends plain-text email through the Resend API.
type ResendEmail struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

func NewResendEmail(apiKey, from, baseURL string, opts ...Option) *ResendEmail {
	if baseURL == "" {
		baseURL = defaultResendURL
	}
	o := buildOptions(opts)
	return &ResendEmail{
		apiKey:     apiKey,
		from:       from,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: o.httpClient,
	}
}

type resendEmail struct {
	From    string           `json:"from"`
	To      []string         `json:"to"`
	Subject string           `json:"subject"`
	Text    string           `json:"text"`
	Tags    []resendEmailTag `json:"tags,omitempty"`
}

type resendEmailTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notify skips recipients without an email address.
func (c *ResendEmail) Notify(ctx context.Context, msg notification.Message) error {
	if msg.Recipient.Email == "" {
		return nil
	}
	payload := resendEmail{
		From:    c.from,
		To:      []string{msg.Recipient.Email},
		Subject: msg.Subject,
		Text:    msg.Body,
		Tags:    []resendEmailTag{{Name: "kind", Value: string(msg.Kind)}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}
	return nil
}
