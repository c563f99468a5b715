package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
)

const defaultTwilioURL = "https://api.twilio.com"

// TwilioSMS sends text messages through the Twilio Messages API.
type TwilioSMS struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioSMS(accountSID, authToken, from, baseURL string, opts ...Option) *TwilioSMS {
	if baseURL == "" {
		baseURL = defaultTwilioURL
	}
	o := buildOptions(opts)
	return &TwilioSMS{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: o.httpClient,
	}
}

// Notify skips recipients without a phone number. SMS carries the body only.
func (c *TwilioSMS) Notify(ctx context.Context, msg notification.Message) error {
	if msg.Recipient.Phone == "" {
		return nil
	}
	form := url.Values{}
	form.Set("To", msg.Recipient.Phone)
	form.Set("From", c.from)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("twilio API error: status %d", resp.StatusCode)
	}
	return nil
}
