// Package sendmail hands messages to the local MTA through the sendmail binary.
package sendmail

import (
	"bytes"
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/bulkmail/executor"
	"github.com/pure-golang/bulkmail/executor/cli"
	"github.com/pure-golang/bulkmail/mail"
)

var _ mail.Sender = (*Sender)(nil)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/mail/sendmail")

type Config struct {
	Path     string        `envconfig:"SENDMAIL_PATH" default:"/usr/sbin/sendmail"`
	From     string        `envconfig:"SENDMAIL_FROM"`
	FromName string        `envconfig:"SENDMAIL_FROM_NAME"`
	Domain   string        `envconfig:"SENDMAIL_DOMAIN" default:"localhost"` // Message-ID domain
	Timeout  time.Duration `envconfig:"SENDMAIL_TIMEOUT" default:"30s"`
}

func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("sendmail path is empty")
	}
	if c.From == "" {
		return errors.New("sendmail from address is empty")
	}
	return nil
}

// Sender pipes every email to one sendmail process. Recipients are passed as arguments,
// so Bcc addresses never reach the headers.
type Sender struct {
	cfg  Config
	exec executor.Executor
	now  func() time.Time
}

type SenderOptions struct {
	Executor executor.Executor // defaults to cli.Executor running cfg.Path
	Now      func() time.Time
}

func NewSender(cfg Config, options *SenderOptions) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid sendmail config")
	}
	if options == nil {
		options = &SenderOptions{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Executor == nil {
		e := cli.New(cli.Config{Command: cfg.Path, Timeout: cfg.Timeout})
		if err := e.Start(); err != nil {
			return nil, errors.Wrap(err, "sendmail is not available")
		}
		options.Executor = e
	}

	return &Sender{cfg: cfg, exec: options.Executor, now: options.Now}, nil
}

func (s *Sender) Send(ctx context.Context, email mail.Email) error {
	ctx, span := tracer.Start(ctx, "Sendmail.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if email.From.Address == "" {
		email.From = mail.Address{Name: s.cfg.FromName, Address: s.cfg.From}
	}
	rcpts := mail.Addresses(email.Recipients())
	span.SetAttributes(attribute.Int("sendmail.rcpt_count", len(rcpts)))
	if len(rcpts) == 0 {
		span.SetStatus(codes.Error, "no recipients")
		return errors.New("no recipients specified")
	}

	// -i: a lone dot does not end the message; -f: envelope sender
	args := append([]string{"-i", "-f", email.From.Address, "--"}, rcpts...)
	if _, err := s.exec.Execute(ctx, bytes.NewReader(email.Bytes(s.now(), s.cfg.Domain)), args...); err != nil {
		err = errors.Wrap(err, "sendmail rejected message")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *Sender) Close() error {
	return s.exec.Close()
}
