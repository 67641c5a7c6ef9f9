package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/yukikurage/taskwave-api/internal/logging"
)

// ErrDelivery wraps every failure to hand a message to the provider.
var ErrDelivery = errors.New("email delivery failed")

// Message is a single outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender for the given API key and from address.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	logging.Debug().Str("email_id", sent.Id).Str("subject", msg.Subject).Msg("Email sent")
	return nil
}

// LogSender writes messages to the log instead of sending them.
// It is used when no provider key is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logging.Warn().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Email delivery disabled, message not sent")
	logging.Debug().Str("body", msg.HTML).Msg("Suppressed email body")
	return nil
}
