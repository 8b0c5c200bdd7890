// Package redis stores batch logs as JSON items of one Redis list.
// RPUSH of a single item is atomic, so a batch is visible whole or not at all.
package redis

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/kv"
)

var _ batchlog.Store = (*Store)(nil)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/batchlog/redis")

// Config задаёт ключ списка с логами
type Config struct {
	Key string `envconfig:"REDIS_LOG_KEY" default:"bulkmail:batch_logs"`
}

// Store implements batchlog.Store on any kv.Store.
type Store struct {
	kv  kv.Store
	key string
}

func New(store kv.Store, cfg Config) (*Store, error) {
	if cfg.Key == "" {
		return nil, errors.New("redis log key is empty")
	}
	return &Store{kv: store, key: cfg.Key}, nil
}

// Append pushes the encoded batch to the tail of the list.
func (s *Store) Append(ctx context.Context, log batchlog.BatchLog) error {
	ctx, span := tracer.Start(ctx, "RedisStore.Append")
	defer span.End()
	span.SetAttributes(attribute.String("batch.id", log.ID))

	data, err := json.Marshal(log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrapf(err, "failed to encode batch %s", log.ID)
	}

	if err := s.kv.RPush(ctx, s.key, string(data)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// ReadAll returns the logs in push order.
func (s *Store) ReadAll(ctx context.Context) ([]batchlog.BatchLog, error) {
	ctx, span := tracer.Start(ctx, "RedisStore.ReadAll")
	defer span.End()

	items, err := s.kv.LRange(ctx, s.key, 0, -1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logs := make([]batchlog.BatchLog, 0, len(items))
	for i, item := range items {
		var l batchlog.BatchLog
		if err := json.Unmarshal([]byte(item), &l); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, errors.Wrapf(err, "failed to decode item %d of %s", i, s.key)
		}
		logs = append(logs, l)
	}
	span.SetAttributes(attribute.Int("batch.count", len(logs)))
	return logs, nil
}
