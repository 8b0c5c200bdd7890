// Package logstore opens the configured batch log backend.
package logstore

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/batchlog/file"
	batchminio "github.com/pure-golang/bulkmail/batchlog/minio"
	"github.com/pure-golang/bulkmail/batchlog/postgres"
	batchredis "github.com/pure-golang/bulkmail/batchlog/redis"
	batchsqlite "github.com/pure-golang/bulkmail/batchlog/sqlite"
	"github.com/pure-golang/bulkmail/db/pg/pgx"
	"github.com/pure-golang/bulkmail/db/sqlite"
	"github.com/pure-golang/bulkmail/kv/redis"
	"github.com/pure-golang/bulkmail/storage/minio"
)

type Provider string

const (
	ProviderFile     Provider = "file"     // one JSON document, the default
	ProviderSQLite   Provider = "sqlite"   // embedded database
	ProviderPostgres Provider = "postgres" // shared database for several instances
	ProviderRedis    Provider = "redis"    // one list item per batch
	ProviderMinio    Provider = "minio"    // one object per batch in S3-compatible storage
)

type Config struct {
	Provider Provider `envconfig:"LOG_STORE_PROVIDER" default:"file"`

	File     file.Config
	SQLite   sqlite.Config
	Postgres pgx.Config
	Redis    redis.Config
	RedisLog batchredis.Config
	S3       minio.Config
	S3Log    batchminio.Config
}

// Store is a batch log store together with the connections it owns.
type Store struct {
	batchlog.Store
	closers []io.Closer
}

// Close releases the underlying connections in reverse order.
func (s *Store) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open connects to the configured backend and prepares its schema or bucket.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	log := slog.Default().With(slog.String("provider", string(cfg.Provider)))

	s, err := open(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s log store", cfg.Provider)
	}
	log.Info("batch log store opened")
	return s, nil
}

func open(ctx context.Context, cfg Config) (*Store, error) {
	switch cfg.Provider {
	case ProviderFile, "":
		store, err := file.New(cfg.File)
		if err != nil {
			return nil, err
		}
		return &Store{Store: store}, nil

	case ProviderSQLite:
		conn, err := sqlite.Connect(ctx, cfg.SQLite)
		if err != nil {
			return nil, err
		}
		store, err := batchsqlite.New(ctx, conn)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return &Store{Store: store, closers: []io.Closer{conn}}, nil

	case ProviderPostgres:
		db, err := pgx.NewDefault(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store, err := postgres.New(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Store{Store: store, closers: []io.Closer{db}}, nil

	case ProviderRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store, err := batchredis.New(client, cfg.RedisLog)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &Store{Store: store, closers: []io.Closer{client}}, nil

	case ProviderMinio:
		objects, err := minio.NewDefault(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return &Store{Store: batchminio.New(objects, cfg.S3Log), closers: []io.Closer{objects}}, nil

	default:
		return nil, errors.Errorf("unknown log store provider: %s", cfg.Provider)
	}
}
