// Package notify delivers operator emails and customer web-push messages.
// Delivery is best effort: callers log failures and move on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Message is a rendered email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer sends a rendered email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResendMailer delivers mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("email has no recipients")
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("failed to send email %q: %w", msg.Subject, err)
	}
	slog.Debug("Email sent", "id", sent.Id, "subject", msg.Subject)
	return nil
}

// LogMailer writes emails to the log instead of sending them. Used when no
// API key is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	slog.Info("Email (not sent, mailer disabled)", "to", msg.To, "subject", msg.Subject)
	return nil
}
