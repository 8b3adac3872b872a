// Package mail sends account emails.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

func (c Config) IsConfigured() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	config Config
	server string
	auth   smtp.Auth
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		config: cfg,
		server: cfg.Host + ":" + cfg.Port,
		auth:   auth,
	}
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	if !m.config.IsConfigured() {
		return fmt.Errorf("email not configured")
	}
	return smtp.SendMail(m.server, m.auth, m.config.From, []string{msg.To}, buildMIME(m.from(), msg))
}

func (m *SMTPMailer) from() string {
	if m.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From)
	}
	return m.config.From
}

const boundary = "boundary-campustroc"

func buildMIME(from string, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	fmt.Fprintf(&b, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", strings.ReplaceAll(msg.Text, "\n", "\r\n"))

	if msg.HTML != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
		fmt.Fprintf(&b, "%s\r\n\r\n", msg.HTML)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes()
}

// LogMailer writes messages to the log instead of sending them. Used when
// SMTP is not configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("email not sent (smtp not configured)", "to", msg.To, "subject", msg.Subject)
	return nil
}

func New(cfg Config) Mailer {
	if !cfg.IsConfigured() {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
