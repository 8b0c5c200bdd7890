package noop

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/sms"
)

var _ sms.Sender = Sender{}

// Sender accepts every valid message without delivering it.
type Sender struct{}

func (Sender) Send(ctx context.Context, msg sms.Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	logger.FromContext(ctx).Debug("noop sms send", slog.String("to", msg.To), slog.String("id", id))
	return id, nil
}
