package notify

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
}

type sendFunc func(ctx context.Context, msg *mail.Msg) error

// SMTPMailer sends mail synchronously through an SMTP relay. STARTTLS is used
// when the relay offers it.
type SMTPMailer struct {
	from string
	send sendFunc
	now  func() time.Time
}

// NewSMTPMailer returns an SMTPMailer. PLAIN auth is used when a username is set.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Addr == "" {
		return nil, errors.New("smtp: address is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp: sender address is required")
	}
	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "smtp: invalid address %q", cfg.Addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.Wrapf(err, "smtp: invalid port in %q", cfg.Addr)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "smtp: client")
	}

	return &SMTPMailer{
		from: cfg.From,
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
		now: time.Now,
	}, nil
}

// Send builds a UTF-8 plain-text message and hands it to the relay.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.buildMessage(to, subject, body)
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		return errors.Wrapf(err, "smtp send to %s", to)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, body string) (*mail.Msg, error) {
	if strings.ContainsAny(subject, "\r\n") {
		return nil, errors.New("smtp: subject must not contain line breaks")
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, errors.Wrapf(err, "smtp: sender %q", m.from)
	}
	if err := msg.To(to); err != nil {
		return nil, errors.Wrapf(err, "smtp: recipient %q", to)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(m.now())
	msg.SetBodyString(mail.TypeTextPlain, strings.ReplaceAll(body, "\r\n", "\n"))
	return msg, nil
}
