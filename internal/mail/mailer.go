package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
)

// Dispatcher delivers a message to a single recipient. Delivery is
// best effort from the caller's point of view: a returned error must
// never roll back the account state that triggered the mail.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	addr     string
	username string
	password string
	from     string
}

func NewSMTPMailer(addr, username, password, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, username: username, password: password, from: from}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	host, _, err := net.SplitHostPort(m.addr)
	if err != nil {
		return fmt.Errorf("smtp addr %q: %w", m.addr, err)
	}
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, host)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	return smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg))
}

// LogMailer writes messages to the log instead of delivering them.
// Used in development when no SMTP endpoint is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("mail not delivered (log mailer)", "to", to, "subject", subject, "body", body)
	return nil
}
