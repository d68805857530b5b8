package smtp

import (
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/notifica-api/internal/config"
	"github.com/notifica-api/internal/domain"
)

// Mailer delivers rendered notification content to a recipient mailbox.
// Failures are classified: recipient rejections are permanent, transport
// problems are transient.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	if !strings.Contains(to, "@") {
		return fmt.Errorf("invalid recipient address %q: %w", to, domain.ErrCollaboratorPermanent)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s",
		m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %s: %w", to, err, classify(err))
	}
	return nil
}

// classify maps SMTP reply codes to a failure class. 5xx replies are the
// server definitively rejecting the message (bad mailbox, policy); anything
// else — 4xx, connection refused, timeout — is worth retrying.
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 500 && tpErr.Code < 600 {
		return domain.ErrCollaboratorPermanent
	}
	return domain.ErrCollaboratorTransient
}
