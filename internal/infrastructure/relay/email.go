package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// EmailSender posts messages to a transactional email API with a bearer key.
type EmailSender struct {
	url    string
	apiKey string
	from   string
	client *http.Client
}

func NewEmailSender(url, apiKey, from string, timeout time.Duration) *EmailSender {
	return &EmailSender{
		url:    url,
		apiKey: apiKey,
		from:   from,
		client: newHTTPClient(timeout),
	}
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (s *EmailSender) SendEmail(ctx context.Context, to, subject, html string) error {
	_, err := postJSON(ctx, s.client, s.url, map[string]string{"Authorization": "Bearer " + s.apiKey}, emailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("email relay: %w", err)
	}
	return nil
}
