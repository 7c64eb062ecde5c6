package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/hamed0406/sitechecker/internal/config"
)

// SMTP sends one plain-text message per call over a fresh connection.
type SMTP struct {
	host string
	opts []mail.Option
}

func NewSMTP(cfg config.EmailConfig) *SMTP {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLSPolicy)),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(authType(cfg.SMTPAuth)),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	return &SMTP{host: cfg.SMTPHost, opts: opts}
}

func authType(a string) mail.SMTPAuthType {
	switch a {
	case config.SMTPAuthPlain:
		return mail.SMTPAuthPlain
	case config.SMTPAuthLogin:
		return mail.SMTPAuthLogin
	case config.SMTPAuthCramMD5:
		return mail.SMTPAuthCramMD5
	default:
		return mail.SMTPAuthAutoDiscover
	}
}

func tlsPolicy(p string) mail.TLSPolicy {
	switch p {
	case config.TLSOpportunistic:
		return mail.TLSOpportunistic
	case config.TLSNone:
		return mail.NoTLS
	default:
		return mail.TLSMandatory
	}
}

func (s *SMTP) Send(ctx context.Context, from, to, subject, body string) error {
	msg, err := buildMessage(from, to, subject, body)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
