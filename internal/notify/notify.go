// Package notify delivers report and technician-log batches by email.
package notify

import (
	"context"
	"errors"
	"fmt"

	"lab-maintenance-backend/internal/config"

	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned when no SMTP server is configured.
var ErrNotConfigured = errors.New("mail server is not configured")

// Message is one outbound email.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends through the configured SMTP relay.
type SMTPSender struct {
	cfg config.MailConfig
}

// NewSender returns an SMTP sender, or a sender that always fails with
// ErrNotConfigured when the mail settings are incomplete.
func NewSender(cfg config.MailConfig) Sender {
	if !cfg.Enabled() {
		return disabledSender{}
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	to := msg.To
	if len(to) == 0 {
		to = s.cfg.Recipients
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	m := mail.NewMsg()
	if err := m.From(s.cfg.Sender); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(to...); err != nil {
		return fmt.Errorf("invalid recipients: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("invalid reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}
	if s.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

type disabledSender struct{}

func (disabledSender) Send(context.Context, Message) error { return ErrNotConfigured }
