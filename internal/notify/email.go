// README: Email delivery for driver trip notices, over plain SMTP.
package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"frete/internal/config"
)

// EmailSender sends one message per call through a gomail dialer. Callers
// treat delivery as best-effort; this type just reports the SMTP outcome.
type EmailSender struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
}

func NewEmailSender(dialer *gomail.Dialer, cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{
		dialer:    dialer,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *EmailSender) Notify(ctx context.Context, email, subject, body string) error {
	// gomail has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromEmail, s.fromName)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", email, err)
	}
	return nil
}
