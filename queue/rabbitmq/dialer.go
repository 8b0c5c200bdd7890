package rabbitmq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrConnectionClosed = errors.New("connection is closed manually")

// Dialer держит одно AMQP соединение и восстанавливает его после обрыва.
type Dialer struct {
	cfg     Config
	options *DialerOptions

	mx     sync.Mutex
	conn   *amqp.Connection
	closed bool
	done   chan struct{}
}

// DialerOptions set dialer params.
type DialerOptions struct {
	RetryPolicy RetryPolicy
	Logger      *slog.Logger
}

func NewDialer(cfg Config, options *DialerOptions) *Dialer {
	if options == nil {
		options = new(DialerOptions)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	options.Logger = options.Logger.WithGroup("rabbitmq").With("connection", cfg.connectionName())
	if options.RetryPolicy == nil {
		options.RetryPolicy = NewDefaultBackoff()
	}

	return &Dialer{
		cfg:     cfg,
		options: options,
		done:    make(chan struct{}),
	}
}

// Connect открывает соединение; после Close его можно вызвать снова.
func (d *Dialer) Connect(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()

	if d.cfg.URL == "" {
		return errors.New("rabbitmq url is empty")
	}
	if d.closed {
		d.closed = false
		d.done = make(chan struct{})
	}
	return d.dial(ctx)
}

// dial вызывается под d.mx
func (d *Dialer) dial(ctx context.Context) error {
	timeout := d.cfg.DialTimeout
	if timeout <= 0 {
		// DefaultDial ставит этот таймаут и на handshake, ноль оборвал бы его сразу
		timeout = 30 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "failed to dial")
	}

	conn, err := amqp.DialConfig(d.cfg.URL, amqp.Config{
		Dial:       amqp.DefaultDial(timeout),
		Properties: amqp.Table{"connection_name": d.cfg.connectionName()},
	})
	if err != nil {
		return errors.Wrap(err, "failed to dial")
	}

	d.conn = conn
	go d.watch(conn.NotifyClose(make(chan *amqp.Error, 1)), d.done)
	d.options.Logger.Debug("Connected")
	return nil
}

func (d *Dialer) Channel() (*amqp.Channel, error) {
	d.mx.Lock()
	defer d.mx.Unlock()

	if d.conn == nil || d.closed {
		return nil, ErrConnectionClosed
	}

	channel, err := d.conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open channel")
	}
	return channel, nil
}

// Close закрывает соединение и останавливает переподключение.
func (d *Dialer) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	close(d.done)

	if d.conn == nil {
		return nil
	}
	conn := d.conn
	d.conn = nil
	if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return errors.Wrap(err, "failed to close RabbitMQ connection")
	}
	return nil
}

// watch ждёт обрыва соединения и переподключается по RetryPolicy, пока не вызван Close
func (d *Dialer) watch(notify chan *amqp.Error, done chan struct{}) {
	amqpErr, ok := <-notify
	if !ok {
		return
	}
	d.options.Logger.Warn("Disconnected", "error", amqpErr.Error())

	for i := 0; ; i++ {
		wait, stop := d.options.RetryPolicy.TryNum(i)
		if stop {
			d.options.Logger.Error("Cannot connect to rabbitmq, giving up", "attempts", i)
			return
		}

		select {
		case <-done:
			return
		case <-time.After(wait):
		}

		d.mx.Lock()
		if d.closed {
			d.mx.Unlock()
			return
		}
		err := d.dial(context.Background())
		d.mx.Unlock()
		if err == nil {
			d.options.Logger.Info("Reconnected", "attempts", i+1)
			return
		}
		d.options.Logger.Warn("Failed to reconnect", "attempt", i+1, "error", err)
	}
}
