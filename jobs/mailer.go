package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Mailer delivers one plain text message.
type Mailer interface {
	Send(ctx context.Context, payload SendEmailPayload) error
}

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	cfg  SMTPConfig
	from mail.Address
	now  func() time.Time
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer validates the sender address.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("jobs: smtp from %q: %w", cfg.From, err)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, from: *from, now: time.Now, send: smtp.SendMail}, nil
}

// Send builds the RFC 5322 message and hands it to the relay.
func (m *SMTPMailer) Send(ctx context.Context, payload SendEmailPayload) error {
	to, err := mail.ParseAddress(payload.To)
	if err != nil {
		return fmt.Errorf("jobs: recipient %q: %w", payload.To, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := m.compose(*to, payload)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.from.Address, []string{to.Address}, msg); err != nil {
		return fmt.Errorf("jobs: smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) compose(to mail.Address, payload SendEmailPayload) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from.String() + "\r\n")
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", payload.Subject) + "\r\n")
	b.WriteString("Date: " + m.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(payload.Body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer only logs messages. It is used when no SMTP host is configured.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the message envelope.
func (m LogMailer) Send(_ context.Context, payload SendEmailPayload) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email not sent: smtp disabled",
		slog.String("to", payload.To),
		slog.String("subject", payload.Subject),
	)
	return nil
}
