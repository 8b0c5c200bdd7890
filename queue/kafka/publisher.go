package kafka

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/bulkmail/queue"
)

var _ queue.Publisher = (*Publisher)(nil)

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher реализует интерфейс queue.Publisher для Kafka
type Publisher struct {
	mx     sync.Mutex
	dialer *Dialer
	cfg    PublisherConfig
	writer messageWriter
	closed bool
}

// PublisherConfig содержит параметры для Publisher
type PublisherConfig struct {
	Balancer kafka.Balancer // стратегия балансировки сообщений между партициями
	Encoder  queue.Encoder  // кодировщик сообщений (по умолчанию JSON)
}

// NewPublisher создает Publisher с одним writer'ом на все темы: тема задаётся в каждом сообщении
func NewPublisher(dialer *Dialer, cfg PublisherConfig) *Publisher {
	if cfg.Encoder == nil {
		cfg.Encoder = queue.JSON{}
	}
	if cfg.Balancer == nil {
		// одинаковый ключ попадает в одну партицию
		cfg.Balancer = &kafka.Hash{}
	}

	return &Publisher{
		dialer: dialer,
		cfg:    cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(dialer.cfg.Brokers...),
			Balancer:               cfg.Balancer,
			MaxAttempts:            dialer.cfg.MaxAttempts,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			Transport: &kafka.Transport{
				DialTimeout: dialer.cfg.DialTimeout,
			},
			Logger:      kafka.LoggerFunc(dialer.logger.Debug),
			ErrorLogger: kafka.LoggerFunc(dialer.logger.Error),
		},
	}
}

// Publish публикует сообщения в Kafka одной синхронной пачкой
func (p *Publisher) Publish(ctx context.Context, messages ...queue.Message) error {
	ctx, span := tracer.Start(ctx, "Kafka.Publish", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	p.mx.Lock()
	closed := p.closed || p.dialer.isClosed()
	p.mx.Unlock()
	if closed {
		span.RecordError(ErrConnectionClosed)
		span.SetStatus(codes.Error, ErrConnectionClosed.Error())
		return ErrConnectionClosed
	}

	batch := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		km, err := p.message(ctx, msg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		batch = append(batch, km)
	}
	span.SetAttributes(attribute.Int("messages_count", len(batch)))

	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrap(err, "failed to publish message to Kafka")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (p *Publisher) message(ctx context.Context, msg queue.Message) (kafka.Message, error) {
	if msg.Topic == "" {
		return kafka.Message{}, errors.New("message topic is empty")
	}

	body, err := msg.EncodeValue(p.cfg.Encoder)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "failed to encode message body")
	}

	key := msg.Key
	if key == "" {
		key = uuid.NewString()
	}

	headers := map[string]string{"content-type": p.cfg.Encoder.ContentType()}
	for k, v := range msg.Headers {
		headers[k] = v
	}

	return kafka.Message{
		Topic:   p.dialer.cfg.TopicPrefix + msg.Topic,
		Key:     []byte(key),
		Value:   body,
		Headers: withTraceHeaders(ctx, headers),
	}, nil
}

// Close закрывает writer и освобождает ресурсы
func (p *Publisher) Close() error {
	p.mx.Lock()
	defer p.mx.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, "failed to close kafka writer")
	}
	p.dialer.logger.Info("Kafka publisher closed")
	return nil
}
