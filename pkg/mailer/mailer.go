package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/groupbuy-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/groupbuy-backend/pkg/errors"
	"gopkg.in/gomail.v2"
)

// Sender delivers a rendered HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer dialer
	from   string
}

// New builds an SMTP mailer from config.
func New(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp host and port are required")
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = cfg.Username
	}
	if from == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}, nil
}

// ForApp picks the digest sender for an environment. Without SMTP settings
// only dev falls back to logf; any other environment is a config error,
// since a sender that never delivers would let the batcher mark rows sent.
func ForApp(app config.AppConfig, smtp config.SMTPConfig, logf func(ctx context.Context, to, subject string)) (Sender, error) {
	if smtp.Enabled() {
		m, err := New(smtp)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	if !app.IsDev() {
		return nil, fmt.Errorf("smtp is required outside %s (env %q)", config.AppEnvDev, app.Env)
	}
	return NewLogMailer(logf), nil
}

// Send delivers one HTML message. Failures are NOTIFICATION_ERROR.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotification, err, "send email")
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when
// SMTP is not configured.
type LogMailer struct {
	logf func(ctx context.Context, to, subject string)
}

// NewLogMailer builds a mailer that records each message through logf.
func NewLogMailer(logf func(ctx context.Context, to, subject string)) *LogMailer {
	return &LogMailer{logf: logf}
}

// Send implements Sender.
func (m *LogMailer) Send(ctx context.Context, to, subject, _ string) error {
	if m.logf != nil {
		m.logf(ctx, to, subject)
	}
	return nil
}
