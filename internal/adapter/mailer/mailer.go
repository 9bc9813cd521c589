// Package mailer delivers notification emails.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/heartmarshall/regpulse-backend/internal/config"
	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg domain.Message) error
}

// New builds the sender selected by cfg.Driver.
func New(cfg config.MailConfig, log *slog.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Driver) {
	case "smtp":
		return NewSMTP(cfg)
	case "log", "":
		return NewLog(log), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// ---------------------------------------------------------------------------
// SMTP
// ---------------------------------------------------------------------------

// SMTP sends mail through an SMTP relay. Each Send opens its own connection,
// so one SMTP value is safe for concurrent use.
type SMTP struct {
	from string
	opts []mail.Option
	host string
}

// NewSMTP validates cfg and prepares the client options.
func NewSMTP(cfg config.MailConfig) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
	}

	switch strings.ToLower(cfg.TLS) {
	case "mandatory":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	// Fail fast on bad options instead of on the first send.
	if _, err := mail.NewClient(cfg.Host, opts...); err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTP{from: cfg.From, opts: opts, host: cfg.Host}, nil
}

// Send delivers msg. Transport failures are reported as a dependency error.
func (s *SMTP) Send(ctx context.Context, msg domain.Message) error {
	m, err := buildMessage(s.from, msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return domain.NewDependencyError("smtp", err)
	}
	return nil
}

func buildMessage(from string, msg domain.Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("sender address %q: %w", from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, domain.NewValidationError("to", fmt.Sprintf("invalid recipient address: %v", err))
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

// ---------------------------------------------------------------------------
// Log
// ---------------------------------------------------------------------------

// Log writes messages to the application log instead of sending them.
type Log struct {
	log *slog.Logger
}

// NewLog creates a logging sender.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log.With("component", "mailer")}
}

func (l *Log) Send(ctx context.Context, msg domain.Message) error {
	l.log.InfoContext(ctx, "mail",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}
