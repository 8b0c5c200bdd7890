package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/kv/memory"
	"github.com/pure-golang/bulkmail/kv/redis"
)

// Provider определяет тип key-value хранилища
type Provider string

const (
	ProviderRedis  Provider = "redis"  // Redis хранилище
	ProviderMemory Provider = "memory" // in-process, for a single instance and tests
)

// Config содержит конфигурацию для key-value хранилища
type Config struct {
	Provider Provider `envconfig:"KV_PROVIDER" default:"memory"`
	Redis    redis.Config
}

// Store is the subset of Redis commands the service relies on.
// Implementations must be safe for concurrent use.
type Store interface {
	// Set stores value under key; expiration 0 keeps it forever.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	// Exists reports whether key is present and not expired.
	Exists(ctx context.Context, key string) (bool, error)

	// RPush appends values to the list atomically.
	RPush(ctx context.Context, key string, values ...string) error
	// LRange returns list items between start and stop inclusive; -1 is the last item.
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}

// New создаёт Store выбранного провайдера
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Provider {
	case ProviderRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderMemory, "":
		return memory.NewStore(), nil
	default:
		return nil, errors.Errorf("unknown kv provider: %s", cfg.Provider)
	}
}
