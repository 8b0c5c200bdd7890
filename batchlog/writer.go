package batchlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pure-golang/bulkmail/dispatch"
	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/queue"
)

// EventTopic is the topic of the event published after every append.
const EventTopic = "batchlog.appended"

// AppendedEvent is the body of the EventTopic message.
type AppendedEvent struct {
	ID              string    `json:"id"`
	Subject         string    `json:"subject"`
	CreatedAt       time.Time `json:"sentAt"`
	TotalRecipients int       `json:"totalRecipients"`
	SentCount       int       `json:"sent"`
	FailedCount     int       `json:"failed"`
}

// Writer appends one BatchLog per dispatched batch. Appends are serialised.
type Writer struct {
	mx        sync.Mutex
	store     Store
	publisher queue.Publisher
	now       func() time.Time
	newID     func() string
}

// WriterOptions contains optional Writer dependencies.
type WriterOptions struct {
	Publisher queue.Publisher // nil disables events
	Now       func() time.Time
	NewID     func() string
}

// NewWriter creates a Writer over store.
func NewWriter(store Store, options *WriterOptions) *Writer {
	if options == nil {
		options = &WriterOptions{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewID == nil {
		options.NewID = uuid.NewString
	}

	return &Writer{
		store:     store,
		publisher: options.Publisher,
		now:       options.Now,
		newID:     options.NewID,
	}
}

// Write records res. The returned BatchLog is valid even when err is a *StoreError.
func (w *Writer) Write(ctx context.Context, subject string, res dispatch.Result) (BatchLog, error) {
	ctx, span := tracer.Start(ctx, "BatchLog.Write")
	defer span.End()

	outcomes := make([]dispatch.Outcome, len(res.Outcomes))
	copy(outcomes, res.Outcomes)

	log := BatchLog{
		ID:              w.newID(),
		Subject:         subject,
		CreatedAt:       w.now().UTC(),
		TotalRecipients: len(outcomes),
		SentCount:       res.Sent,
		FailedCount:     res.Failed,
		Recipients:      outcomes,
	}
	span.SetAttributes(attribute.String("batchlog.id", log.ID))

	if err := log.Validate(); err != nil {
		err = errors.Wrap(err, "inconsistent dispatch result")
		recordError(span, err)
		return log, err
	}

	if err := w.append(ctx, log); err != nil {
		err = &StoreError{Op: OpWrite, Err: err}
		recordError(span, err)
		return log, err
	}
	span.SetStatus(codes.Ok, "")

	w.publish(ctx, log)
	return log, nil
}

func (w *Writer) append(ctx context.Context, log BatchLog) error {
	w.mx.Lock()
	defer w.mx.Unlock()

	return w.store.Append(ctx, log)
}

// publish is best effort: the batch is already durable.
func (w *Writer) publish(ctx context.Context, log BatchLog) {
	if w.publisher == nil {
		return
	}

	err := w.publisher.Publish(ctx, queue.Message{
		Topic: EventTopic,
		Key:   log.ID,
		Headers: map[string]string{
			"batch-id": log.ID,
		},
		Body: AppendedEvent{
			ID:              log.ID,
			Subject:         log.Subject,
			CreatedAt:       log.CreatedAt,
			TotalRecipients: log.TotalRecipients,
			SentCount:       log.SentCount,
			FailedCount:     log.FailedCount,
		},
	})
	if err != nil {
		logger.FromContextWithErr(ctx, err).Warn("failed to publish batch log event",
			slog.String("batch_id", log.ID),
		)
	}
}
