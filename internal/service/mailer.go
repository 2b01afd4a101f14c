package service

import (
	"context"
	"fmt"

	"github.com/conny0506/jira-lite/internal/config"
	"github.com/conny0506/jira-lite/internal/observability"

	"github.com/wneessen/go-mail"
)

// Mailer sends outbound notification mail. Implementations must respect the
// context deadline; a hung SMTP connection must not hang a request.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		observability.RecordMailDispatch(ctx, "smtp", "error")
		return err
	}
	observability.RecordMailDispatch(ctx, "smtp", "success")
	return nil
}

// NoopMailer is used when no SMTP host is configured (local development).
type NoopMailer struct{}

func (NoopMailer) Send(ctx context.Context, to, subject, _ string) error {
	observability.RecordMailDispatch(ctx, "noop", "success")
	return nil
}
