package sendgrid

import (
	"context"
	"fmt"
	netmail "net/mail"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type client interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer sends email through the SendGrid v3 mail API.
type Mailer struct {
	client client
	from   *mail.Email
}

func NewMailer(apiKey, from string) *Mailer {
	return &Mailer{client: sendgrid.NewSendClient(apiKey), from: parseFrom(from)}
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, html string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), "", html)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// parseFrom accepts "Name <addr>" or a bare address.
func parseFrom(from string) *mail.Email {
	if a, err := netmail.ParseAddress(from); err == nil {
		return mail.NewEmail(a.Name, a.Address)
	}
	return mail.NewEmail("", from)
}
