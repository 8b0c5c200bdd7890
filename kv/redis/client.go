package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	rclient "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
)

// Client представляет клиент Redis
type Client struct {
	rdb    *rclient.Client
	cfg    Config
	logger *slog.Logger
}

// Connect создаёт новое подключение к Redis и проверяет его
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	logger := slog.Default().WithGroup("redis")
	logger.Debug("connecting to redis", "addr", cfg.Addr)

	client := &Client{
		rdb: rclient.NewClient(&rclient.Options{
			Addr:            cfg.Addr,
			Password:        cfg.Password,
			DB:              cfg.DB,
			MaxRetries:      cfg.MaxRetries,
			MinRetryBackoff: cfg.MinRetryBackoff,
			MaxRetryBackoff: cfg.MaxRetryBackoff,
			DialTimeout:     cfg.DialTimeout,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			PoolSize:        cfg.PoolSize,
		}),
		cfg:    cfg,
		logger: logger,
	}

	if err := client.Ping(ctx); err != nil {
		_ = client.rdb.Close()
		return nil, err
	}

	logger.Info("connected to redis", "addr", cfg.Addr)
	return client, nil
}

// Close закрывает подключение к Redis
func (c *Client) Close() error {
	_, span := startSpan(context.Background(), "Close", "", c.cfg.DB)
	defer span.End()

	if err := c.rdb.Close(); err != nil && !errors.Is(err, rclient.ErrClosed) {
		recordError(span, err)
		return errors.Wrap(err, "failed to close redis connection")
	}

	c.logger.Debug("redis connection closed")
	return nil
}

// Ping проверяет подключение к Redis
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := startSpan(ctx, "Ping", "", c.cfg.DB)
	defer span.End()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		recordError(span, err)
		return errors.Wrap(err, "failed to ping redis")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Set устанавливает значение по ключу с опциональным TTL
func (c *Client) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	ctx, span := startSpan(ctx, "Set", key, c.cfg.DB)
	defer span.End()

	if err := c.rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		recordError(span, err)
		return errors.Wrapf(err, "failed to set key %q", key)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Exists проверяет существование ключа
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := startSpan(ctx, "Exists", key, c.cfg.DB)
	defer span.End()

	count, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		recordError(span, err)
		return false, errors.Wrapf(err, "failed to check key %q", key)
	}

	span.SetStatus(codes.Ok, "")
	return count > 0, nil
}

// RPush добавляет значения в конец списка одной командой
func (c *Client) RPush(ctx context.Context, key string, values ...string) error {
	ctx, span := startSpan(ctx, "RPush", key, c.cfg.DB)
	defer span.End()

	if len(values) == 0 {
		return nil
	}

	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}

	if err := c.rdb.RPush(ctx, key, args...).Err(); err != nil {
		recordError(span, err)
		return errors.Wrapf(err, "failed to rpush to key %q", key)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// LRange возвращает элементы списка в диапазоне [start, stop]
func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ctx, span := startSpan(ctx, "LRange", key, c.cfg.DB)
	defer span.End()

	items, err := c.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		recordError(span, err)
		return nil, errors.Wrapf(err, "failed to lrange key %q", key)
	}
	if items == nil {
		items = []string{}
	}

	span.SetStatus(codes.Ok, "")
	return items, nil
}
