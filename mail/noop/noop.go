package noop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/mail"
)

var _ mail.Sender = (*Sender)(nil)

// Sender accepts every email without delivering it. Used for local runs
// where no SMTP account is configured.
type Sender struct {
	sent atomic.Int64
}

// NewSender creates a new no-op Sender.
func NewSender() *Sender {
	return &Sender{}
}

// Send discards the email.
func (n *Sender) Send(ctx context.Context, email mail.Email) error {
	n.sent.Add(1)
	logger.FromContext(ctx).Debug("noop mail send",
		slog.Int("recipients", len(email.Recipients())),
		slog.String("subject", email.Subject),
	)
	return nil
}

// Sent returns how many emails were accepted.
func (n *Sender) Sent() int64 {
	return n.sent.Load()
}

// Close is a no-op.
func (n *Sender) Close() error {
	return nil
}
