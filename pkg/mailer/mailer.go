package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/hugh/finza/pkg/config"
)

// Message is a notification to one recipient. Action, when set, is rendered
// as a prominent link under the body.
type Message struct {
	To          string
	Subject     string
	Body        string
	ActionTitle string
	ActionURL   string
}

// Mailer delivers notifications. The auth flows only depend on this
// interface; delivery details (SMTP, provider API) stay behind it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends plain-text mail over SMTP with PLAIN auth.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: cfg.Addr(),
		auth: auth,
		from: cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := render(m.from, msg)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}
	return nil
}

func render(from string, msg Message) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	if msg.ActionURL != "" {
		title := msg.ActionTitle
		if title == "" {
			title = "Open"
		}
		fmt.Fprintf(&b, "\r\n\r\n%s: %s\r\n", title, msg.ActionURL)
	}

	return []byte(b.String())
}
