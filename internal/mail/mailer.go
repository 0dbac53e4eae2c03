// Package mail sends transactional email over SMTP.
package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"updoot/internal/config"
)

// Mailer sends account email. Implementations must be safe for concurrent use.
type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

// SMTPMailer delivers mail through a configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer from the SMTP settings in cfg.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

// SendPasswordReset mails a one-time password reset link.
func (m *SMTPMailer) SendPasswordReset(to, resetURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your password")
	msg.SetBody("text/html", fmt.Sprintf(`<a href=%q>reset password</a>`, resetURL))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending password reset mail: %w", err)
	}
	return nil
}
