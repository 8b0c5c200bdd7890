package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/mail"
	"github.com/pure-golang/bulkmail/render"
)

// Executor performs one send per call and turns every failure into data.
type Executor struct {
	sender mail.Sender
	useBcc bool
	now    func() time.Time
	newID  func() string
}

// ExecutorOptions contains optional Executor dependencies.
type ExecutorOptions struct {
	UseBcc bool
	Now    func() time.Time
	NewID  func() string
}

// NewExecutor creates an Executor over sender.
func NewExecutor(sender mail.Sender, options *ExecutorOptions) *Executor {
	if options == nil {
		options = &ExecutorOptions{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewID == nil {
		options.NewID = uuid.NewString
	}

	return &Executor{
		sender: sender,
		useBcc: options.UseBcc,
		now:    options.Now,
		newID:  options.NewID,
	}
}

// Attempt sends msg to r once. It never returns an error and never panics:
// transport failures and panics become a Failed outcome.
func (e *Executor) Attempt(ctx context.Context, r Recipient, msg render.Rendered) Outcome {
	return e.attempt(ctx, r, func() (render.Rendered, error) { return msg, nil })
}

// attempt renders and sends under one recover: a render error or panic is a Failed outcome too.
func (e *Executor) attempt(ctx context.Context, r Recipient, prepare func() (render.Rendered, error)) (out Outcome) {
	ctx, span := tracer.Start(ctx, "Attempt")
	defer span.End()

	start := e.now()
	defer func() {
		if p := recover(); p != nil {
			out = e.failed(r, fmt.Sprintf("panic: %v", p))
		}

		span.SetAttributes(attribute.String("dispatch.status", string(out.Status())))
		if out.Status() == StatusFailed {
			span.SetStatus(codes.Error, out.Reason())
			logger.FromContext(ctx).Warn("delivery failed",
				slog.String("recipient", r.Email),
				slog.String("reason", out.Reason()),
			)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		recordAttempt(out.Status(), e.now().Sub(start).Seconds())
	}()

	msg, err := prepare()
	if err != nil {
		span.RecordError(err)
		return e.failed(r, err.Error())
	}

	address := mail.Address{Name: render.Greeting(r.FirstName, r.LastName), Address: r.Email}
	email := mail.Email{
		Subject: msg.Subject,
		Body:    msg.Text,
		HTML:    msg.HTML,
	}
	if e.useBcc {
		email.Bcc = []mail.Address{address}
	} else {
		email.To = []mail.Address{address}
	}

	if err := e.sender.Send(ctx, email); err != nil {
		span.RecordError(err)
		return e.failed(r, err.Error())
	}
	return NewSent(e.newID(), r.Email, e.now())
}

func (e *Executor) failed(r Recipient, reason string) Outcome {
	return NewFailed(e.newID(), r.Email, reason, e.now())
}
