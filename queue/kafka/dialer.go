package kafka

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

var ErrConnectionClosed = errors.New("connection is closed")

// Dialer хранит параметры подключения к кластеру и проверяет его доступность
type Dialer struct {
	mx     sync.Mutex
	dialer *kafka.Dialer
	cfg    Config
	logger *slog.Logger
	closed bool
}

// DialerOptions содержит опции для создания Dialer
type DialerOptions struct {
	Logger *slog.Logger
}

// NewDialer создает новый Dialer для работы с Kafka
func NewDialer(cfg Config, options *DialerOptions) (*Dialer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are not set")
	}
	if options == nil {
		options = new(DialerOptions)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Dialer{
		cfg:    cfg,
		logger: options.Logger.WithGroup("kafka"),
		dialer: &kafka.Dialer{
			Timeout:   cfg.DialTimeout,
			DualStack: true,
		},
	}, nil
}

// Ping открывает и сразу закрывает соединение с первым доступным брокером
func (d *Dialer) Ping(ctx context.Context) error {
	d.mx.Lock()
	closed := d.closed
	d.mx.Unlock()
	if closed {
		return ErrConnectionClosed
	}

	var lastErr error
	for _, broker := range d.cfg.Brokers {
		conn, err := d.dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			d.logger.With("broker", broker, "error", err.Error()).Warn("broker is unreachable")
			continue
		}
		return conn.Close()
	}
	return errors.Wrap(lastErr, "no kafka broker is reachable")
}

// Close помечает Dialer закрытым, после этого Publisher не создаёт новых writer'ов
func (d *Dialer) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.logger.Info("Kafka dialer closed")
	return nil
}

func (d *Dialer) isClosed() bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.closed
}
