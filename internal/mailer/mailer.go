// Package mailer sends error notification mail to the admin address.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/zerohour-app/zerohour-api/internal/config"
)

// Mailer sends plain-text notifications over SMTP with STARTTLS.
type Mailer struct {
	host string
	port string
	user string
	pass string
	to   string
}

// New returns a Mailer, or nil when SMTP credentials are not configured.
// A nil Mailer is safe to use; Send becomes a no-op.
func New(cfg *config.Config) *Mailer {
	if cfg.SMTPUser == "" || cfg.AdminEmail == "" {
		return nil
	}
	return &Mailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		to:   cfg.AdminEmail,
	}
}

// Send mails the admin a subject and body.
func (m *Mailer) Send(subject, body string) error {
	if m == nil {
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.user,
		"To: " + m.to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(addr, auth, m.user, []string{m.to}, []byte(msg)); err != nil {
		return fmt.Errorf("mailer: send failed: %w", err)
	}
	return nil
}
