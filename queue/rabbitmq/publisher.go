package rabbitmq

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/bulkmail/queue"
)

var _ queue.Publisher = (*Publisher)(nil)

// channel is the part of amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	Close() error
}

type Publisher struct {
	mx      sync.Mutex
	open    func() (channel, error)
	cfg     Config
	encoder queue.Encoder
	channel channel
	closed  <-chan *amqp.Error
	done    bool
}

// NewPublisher publishes to cfg.Exchange, declaring it on every new channel.
func NewPublisher(dialer *Dialer, cfg Config, encoder queue.Encoder) *Publisher {
	return newPublisher(func() (channel, error) {
		ch, err := dialer.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}, cfg, encoder)
}

func newPublisher(open func() (channel, error), cfg Config, encoder queue.Encoder) *Publisher {
	if encoder == nil {
		encoder = queue.JSON{}
	}

	closed := make(chan *amqp.Error, 1)
	close(closed)

	return &Publisher{
		open:    open,
		cfg:     cfg,
		encoder: encoder,
		closed:  closed,
	}
}

// Publish messages to exchange. Method is sync.
func (p *Publisher) Publish(ctx context.Context, messages ...queue.Message) error {
	ch, err := p.ensureChannel()
	if err != nil {
		return err
	}

	for _, msg := range messages {
		if err := p.publish(ctx, ch, msg); err != nil {
			return err
		}
	}
	return nil
}

// ensureChannel reopens the channel after the broker closed it.
func (p *Publisher) ensureChannel() (channel, error) {
	p.mx.Lock()
	defer p.mx.Unlock()

	if p.done {
		return nil, ErrConnectionClosed
	}

	select {
	case <-p.closed:
		ch, err := p.open()
		if err != nil {
			return nil, err
		}
		if err := ch.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, errors.Wrapf(err, "failed to declare exchange %s", p.cfg.Exchange)
		}
		p.channel = ch
		p.closed = ch.NotifyClose(make(chan *amqp.Error, 1))
	default:
	}
	return p.channel, nil
}

func (p *Publisher) publish(ctx context.Context, ch channel, msg queue.Message) error {
	ctx, span := tracer.Start(ctx, "RabbitMQ.Publish", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	body, err := msg.EncodeValue(p.encoder)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	amqpMsg := amqp.Publishing{
		ContentType:   p.encoder.ContentType(),
		MessageId:     uuid.NewString(),
		CorrelationId: msg.Key,
		DeliveryMode:  amqp.Persistent,
		Body:          body,
		Headers:       amqp.Table{},
	}
	for k, v := range msg.Headers {
		amqpMsg.Headers[k] = v
	}
	if p.cfg.MessageTTL > 0 {
		amqpMsg.Expiration = strconv.FormatInt(p.cfg.MessageTTL.Milliseconds(), 10)
	}
	if msg.TTL > 0 {
		amqpMsg.Expiration = strconv.FormatInt(msg.TTL.Milliseconds(), 10)
	}

	otel.GetTextMapPropagator().Inject(ctx, tableCarrier(amqpMsg.Headers))

	span.SetAttributes(
		attribute.String("id", amqpMsg.MessageId),
		attribute.String("exchange", p.cfg.Exchange),
		attribute.String("key", msg.Topic),
		attribute.Int("body_size", len(body)),
	)

	err = ch.PublishWithContext(ctx, p.cfg.Exchange, msg.Topic, false, false, amqpMsg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrap(err, "failed to publish message to RabbitMQ")
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Close closes the channel. The dialer is closed by its owner.
func (p *Publisher) Close() error {
	p.mx.Lock()
	defer p.mx.Unlock()

	p.done = true
	if p.channel == nil {
		return nil
	}
	ch := p.channel
	p.channel = nil

	if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return errors.Wrap(err, "failed to close channel")
	}
	return nil
}
