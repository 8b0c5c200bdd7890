package smtp

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/bulkmail/mail"
)

var _ mail.Sender = (*Sender)(nil)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/mail/smtp")

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("sender is closed")

// Sender implements mail.Sender using net/smtp.
// Every Send opens its own SMTP session, so concurrent sends never share a connection.
type Sender struct {
	mx     sync.RWMutex
	cfg    Config
	closed bool
	now    func() time.Time
}

// SenderOptions contains options for creating a Sender.
type SenderOptions struct {
	Now func() time.Time
}

// NewSender validates cfg and creates a Sender.
func NewSender(cfg Config, options *SenderOptions) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid smtp config")
	}
	if options == nil {
		options = &SenderOptions{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	return &Sender{
		cfg: cfg,
		now: options.Now,
	}, nil
}

// Send delivers a single email.
func (s *Sender) Send(ctx context.Context, email mail.Email) error {
	ctx, span := tracer.Start(ctx, "SMTP.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("smtp.host", s.cfg.Host),
		attribute.Int("smtp.port", s.cfg.Port),
		attribute.Bool("smtp.tls", s.cfg.TLS),
		attribute.Int("smtp.to_count", len(email.To)),
		attribute.Int("smtp.bcc_count", len(email.Bcc)),
	)

	s.mx.RLock()
	closed := s.closed
	s.mx.RUnlock()
	if closed {
		span.SetStatus(codes.Error, ErrClosed.Error())
		return ErrClosed
	}

	if email.From.Address == "" {
		email.From = mail.Address{Name: s.cfg.FromName, Address: s.cfg.sender()}
	}

	rcpts := mail.Addresses(email.Recipients())
	if len(rcpts) == 0 {
		span.SetStatus(codes.Error, "no recipients")
		return errors.New("no recipients specified")
	}

	if err := s.deliver(ctx, email.From.Address, rcpts, email.Bytes(s.now(), s.cfg.Host)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// deliver runs one SMTP session: dial, STARTTLS, AUTH, MAIL, RCPT, DATA, QUIT.
func (s *Sender) deliver(ctx context.Context, from string, rcpts []string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	deadline := s.now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	dialer := net.Dialer{Deadline: deadline}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, "failed to connect to SMTP server")
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return errors.Wrap(err, "failed to set connection deadline")
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "failed to start SMTP session")
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName:         s.cfg.Host,
			InsecureSkipVerify: s.cfg.Insecure, // #nosec G402 -- controlled by config
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return errors.Wrap(err, "failed to start TLS")
		}
	} else if s.cfg.TLS {
		return errors.New("server does not support STARTTLS")
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return errors.Wrap(err, "failed to authenticate")
	}

	if err := client.Mail(from); err != nil {
		return errors.Wrap(err, "failed to set sender")
	}
	for _, rcpt := range rcpts {
		if err := client.Rcpt(rcpt); err != nil {
			return errors.Wrapf(err, "recipient rejected: %s", rcpt)
		}
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "failed to get data writer")
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return errors.Wrap(err, "failed to write message")
	}
	// the server accepts or rejects the message on the final dot
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "message rejected")
	}

	// the message is queued already; a failed QUIT does not change that
	_ = client.Quit()
	return nil
}

// Close closes the sender. Sends in flight finish normally.
func (s *Sender) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.closed = true
	return nil
}
