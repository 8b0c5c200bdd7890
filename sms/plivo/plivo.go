// Package plivo sends SMS through the Plivo REST API.
package plivo

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	plivogo "github.com/plivo/plivo-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/sms"
)

var _ sms.Sender = (*Sender)(nil)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/sms/plivo")

type Config struct {
	AuthID    string        `envconfig:"PLIVO_AUTH_ID"`
	AuthToken string        `envconfig:"PLIVO_AUTH_TOKEN"`
	Source    string        `envconfig:"PLIVO_SRC_NUMBER"` // sender number or alphanumeric id
	Timeout   time.Duration `envconfig:"PLIVO_TIMEOUT" default:"15s"`
}

func (c Config) Validate() error {
	if c.AuthID == "" || c.AuthToken == "" {
		return errors.New("plivo credentials are not set")
	}
	if c.Source == "" {
		return errors.New("plivo source number is not set")
	}
	return nil
}

// messages is the part of the Plivo client the sender uses.
type messages interface {
	Create(params plivogo.MessageCreateParams) (*plivogo.MessageCreateResponseBody, error)
}

type Sender struct {
	messages messages
	source   string
}

func New(cfg Config) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := plivogo.NewClient(cfg.AuthID, cfg.AuthToken, &plivogo.ClientOptions{
		HttpClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create plivo client")
	}
	slog.Default().WithGroup("plivo").Info("plivo client initialized", "src", cfg.Source)

	return &Sender{messages: client.Messages, source: cfg.Source}, nil
}

// Send returns the first message uuid Plivo assigned. The client has no context support,
// so ctx only cancels before the request is made.
func (s *Sender) Send(ctx context.Context, msg sms.Message) (string, error) {
	ctx, span := tracer.Start(ctx, "Plivo.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if err := msg.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := s.messages.Create(plivogo.MessageCreateParams{
		Src:  s.source,
		Dst:  msg.To,
		Text: msg.Text,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", errors.Wrap(err, "plivo rejected the message")
	}
	if resp == nil || len(resp.MessageUUID) == 0 {
		err := errors.New("plivo returned no message id")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	id := resp.MessageUUID[0]
	span.SetAttributes(attribute.String("sms.id", id))
	span.SetStatus(codes.Ok, "")
	logger.FromContext(ctx).Info("sms sent", slog.String("to", msg.To), slog.String("id", id))
	return id, nil
}
