// Package mail delivers reminder emails and renders their content.
package mail

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"net/textproto"
	"strings"

	"go.uber.org/zap"

	"github.com/medialab/equipment-booking/internal/config"
)

// SMTPMailer sends plain text mail through an SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string

	sendMailFn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer validates cfg and returns a mailer.  Authentication is
// skipped when no username is configured (local relays).
func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("SMTP configuration incomplete")
	}
	if _, err := netmail.ParseAddress(cfg.From); err != nil {
		return nil, fmt.Errorf("invalid SMTP_FROM %q: %w", cfg.From, err)
	}
	return &SMTPMailer{
		host:       cfg.Host,
		port:       cfg.Port,
		username:   cfg.Username,
		password:   cfg.Password,
		from:       cfg.From,
		sendMailFn: smtp.SendMail,
	}, nil
}

// Send delivers one message to a single recipient.  A malformed address or
// a permanent mailbox refusal from the server is reported in rejected; any
// other failure is returned as an error.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addr, err := netmail.ParseAddress(to)
	if err != nil {
		return []string{to}, nil
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	msg := buildMessage(m.from, addr.Address, subject, body)
	err = m.sendMailFn(net.JoinHostPort(m.host, m.port), auth, m.from, []string{addr.Address}, msg)
	if err == nil {
		return nil, nil
	}
	if isMailboxRefusal(err) {
		return []string{addr.Address}, nil
	}
	return nil, fmt.Errorf("failed to send email to %s: %w", addr.Address, err)
}

// isMailboxRefusal matches the 55x replies a server gives for a recipient
// it will never accept.
func isMailboxRefusal(err error) bool {
	var te *textproto.Error
	if !errors.As(err, &te) {
		return false
	}
	switch te.Code {
	case 550, 551, 553:
		return true
	}
	return false
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", sanitizeHeader(subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogMailer writes messages to the log instead of sending them.  It is
// used when no SMTP relay is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log.Named("mail")}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) ([]string, error) {
	m.log.Info("mail not sent (no SMTP relay configured)",
		zap.String("to", to), zap.String("subject", subject), zap.Int("body_bytes", len(body)))
	return nil, nil
}
