// Package events builds the broker publisher selected by configuration.
package events

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/queue"
	"github.com/pure-golang/bulkmail/queue/kafka"
	"github.com/pure-golang/bulkmail/queue/rabbitmq"
)

// Provider определяет брокер событий
type Provider string

const (
	ProviderNone     Provider = "none"
	ProviderKafka    Provider = "kafka"
	ProviderRabbitMQ Provider = "rabbitmq"
)

type Config struct {
	Provider Provider `envconfig:"EVENTS_PROVIDER" default:"none"`
	Kafka    kafka.Config
	RabbitMQ rabbitmq.Config
}

// Publisher owns its broker connection.
type Publisher interface {
	queue.Publisher
	io.Closer
}

// New returns nil for ProviderNone: events are disabled.
func New(ctx context.Context, cfg Config) (Publisher, error) {
	switch cfg.Provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderKafka:
		return newKafka(ctx, cfg.Kafka)
	case ProviderRabbitMQ:
		return newRabbitMQ(ctx, cfg.RabbitMQ)
	default:
		return nil, errors.Errorf("unknown events provider: %s", cfg.Provider)
	}
}

type kafkaPublisher struct {
	*kafka.Publisher
	dialer *kafka.Dialer
}

func newKafka(ctx context.Context, cfg kafka.Config) (Publisher, error) {
	dialer, err := kafka.NewDialer(cfg, nil)
	if err != nil {
		return nil, err
	}
	if err := dialer.Ping(ctx); err != nil {
		return nil, err
	}
	slog.Default().Info("events are published to kafka", "brokers", cfg.Brokers)
	return &kafkaPublisher{Publisher: kafka.NewPublisher(dialer, kafka.PublisherConfig{}), dialer: dialer}, nil
}

func (p *kafkaPublisher) Close() error {
	pubErr := p.Publisher.Close()
	if err := p.dialer.Close(); err != nil {
		return err
	}
	return pubErr
}

type rabbitPublisher struct {
	*rabbitmq.Publisher
	dialer *rabbitmq.Dialer
}

func newRabbitMQ(ctx context.Context, cfg rabbitmq.Config) (Publisher, error) {
	dialer := rabbitmq.NewDialer(cfg, nil)
	if err := dialer.Connect(ctx); err != nil {
		return nil, err
	}
	slog.Default().Info("events are published to rabbitmq", "exchange", cfg.Exchange)
	return &rabbitPublisher{Publisher: rabbitmq.NewPublisher(dialer, cfg, nil), dialer: dialer}, nil
}

func (p *rabbitPublisher) Close() error {
	pubErr := p.Publisher.Close()
	if err := p.dialer.Close(); err != nil {
		return err
	}
	return pubErr
}
