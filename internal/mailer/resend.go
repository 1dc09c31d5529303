package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Resend delivers mail through the Resend API.
type Resend struct {
	client *resend.Client
	from   string
}

// NewResend returns a mailer that fails every send with ErrNotConfigured when
// apiKey is empty, so a missing key surfaces per request rather than at boot.
func NewResend(apiKey, from string) *Resend {
	r := &Resend{from: from}
	if apiKey != "" {
		r.client = resend.NewClient(apiKey)
	}
	return r
}

func (r *Resend) Send(ctx context.Context, msg Message) error {
	if r.client == nil {
		return ErrNotConfigured
	}

	params := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	_, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
