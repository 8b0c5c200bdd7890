package dispatch

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/render"
)

// renderer is the part of *render.Renderer the dispatcher uses.
type renderer interface {
	Prepare(msg render.Message) (render.Body, error)
	Render(body render.Body, firstName, lastName string) (render.Rendered, error)
}

// Dispatcher fans a batch out to the Executor and waits for every attempt.
type Dispatcher struct {
	cfg       Config
	transport Transport
	renderer  renderer
	executor  *Executor
}

// NewDispatcher wires a Dispatcher. options may be nil.
func NewDispatcher(cfg Config, transport Transport, renderer *render.Renderer, options *ExecutorOptions) *Dispatcher {
	if options == nil {
		options = &ExecutorOptions{}
	}
	options.UseBcc = cfg.UseBcc

	d := &Dispatcher{
		cfg:       cfg,
		transport: transport,
		renderer:  renderer,
	}
	if transport.Err == nil && transport.Sender != nil {
		d.executor = NewExecutor(transport.Sender, options)
	}
	return d
}

// Dispatch validates b and sends it to every recipient concurrently.
// Only *ValidationError and *TransportError fail the whole batch; per-recipient failures are
// in the Result. Attempts, once started, are not cancelled by ctx.
func (d *Dispatcher) Dispatch(ctx context.Context, b Batch) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "Dispatch")
	defer span.End()

	span.SetAttributes(attribute.Int("dispatch.recipients", len(b.Recipients)))

	if err := Validate(b); err != nil {
		recordError(span, err)
		recordBatch("rejected")
		return Result{}, err
	}

	if d.executor == nil {
		cause := d.transport.Err
		if cause == nil {
			cause = errors.New("no mail sender configured")
		}
		err := &TransportError{Err: cause}
		recordError(span, err)
		recordBatch("failed")
		return Result{}, err
	}

	body, err := d.renderer.Prepare(render.Message{Subject: b.Subject, Body: b.Body, Format: b.Format})
	if err != nil {
		err = &ValidationError{Kind: MissingContent, Message: err.Error()}
		recordError(span, err)
		recordBatch("rejected")
		return Result{}, err
	}
	// markdown may lose everything to goldmark's raw HTML filter
	if render.IsBlank(string(body.HTML)) {
		err := &ValidationError{Kind: MissingContent, Message: "Subject and body are required"}
		recordError(span, err)
		recordBatch("rejected")
		return Result{}, err
	}

	outcomes := make([]Outcome, len(b.Recipients))

	var g errgroup.Group
	if d.cfg.Concurrency > 0 {
		g.SetLimit(d.cfg.Concurrency)
	}
	for i, r := range b.Recipients {
		g.Go(func() error {
			outcomes[i] = d.executor.attempt(ctx, r, func() (render.Rendered, error) {
				return d.renderer.Render(body, r.FirstName, r.LastName)
			})
			return nil
		})
	}
	// attempts never return errors
	_ = g.Wait()

	res := Result{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Status() == StatusSent {
			res.Sent++
		} else {
			res.Failed++
		}
	}

	span.SetAttributes(
		attribute.Int("dispatch.sent", res.Sent),
		attribute.Int("dispatch.failed", res.Failed),
	)
	span.SetStatus(codes.Ok, "")

	switch {
	case res.Failed == 0:
		recordBatch("ok")
	case res.Sent == 0:
		recordBatch("failed")
	default:
		recordBatch("partial")
	}

	logger.FromContext(ctx).Info("batch dispatched",
		slog.String("subject", b.Subject),
		slog.Int("total", res.Total()),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
	)

	return res, nil
}
