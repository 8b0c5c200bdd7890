// Package minio stores every batch log as its own JSON object in an S3 bucket.
// An object appears only after its upload completes, so readers never see a partial batch.
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/storage"
)

var _ batchlog.Store = (*Store)(nil)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/batchlog/minio")

// Config задаёт префикс ключей внутри бакета
type Config struct {
	Prefix string `envconfig:"S3_LOG_PREFIX" default:"batch-logs/"`
	// ReadConcurrency ограничивает число параллельных GET в ReadAll
	ReadConcurrency int `envconfig:"S3_LOG_READ_CONCURRENCY" default:"8"`
}

// Store implements batchlog.Store on a storage.Storage bucket.
type Store struct {
	objects storage.Storage
	cfg     Config
}

func New(objects storage.Storage, cfg Config) *Store {
	if cfg.ReadConcurrency <= 0 {
		cfg.ReadConcurrency = 8
	}
	return &Store{objects: objects, cfg: cfg}
}

// Keys sort lexically in creation order: <prefix><UTC timestamp>_<id>.json
func (s *Store) key(log batchlog.BatchLog) string {
	return path.Join(s.cfg.Prefix, log.CreatedAt.UTC().Format("20060102T150405.000000000Z")+"_"+log.ID+".json")
}

// Append uploads one object per batch. An existing object with the same key is an error.
func (s *Store) Append(ctx context.Context, log batchlog.BatchLog) error {
	ctx, span := tracer.Start(ctx, "MinioStore.Append")
	defer span.End()

	key := s.key(log)
	span.SetAttributes(attribute.String("batch.id", log.ID), attribute.String("key", key))

	exists, err := s.objects.Exists(ctx, "", key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if exists {
		err := errors.Errorf("batch %s already exists", log.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	data, err := json.Marshal(log)
	if err != nil {
		return errors.Wrapf(err, "failed to encode batch %s", log.ID)
	}

	err = s.objects.Put(ctx, "", key, bytes.NewReader(data), int64(len(data)), &storage.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"batch-id": log.ID},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// ReadAll lists the prefix and fetches the objects concurrently, preserving key order.
func (s *Store) ReadAll(ctx context.Context) ([]batchlog.BatchLog, error) {
	ctx, span := tracer.Start(ctx, "MinioStore.ReadAll")
	defer span.End()

	objects, err := s.objects.List(ctx, "", &storage.ListOptions{Prefix: s.cfg.Prefix, Recursive: true})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		if strings.HasSuffix(o.Key, ".json") {
			keys = append(keys, o.Key)
		}
	}

	logs := make([]batchlog.BatchLog, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ReadConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			l, err := s.read(gctx, key)
			if err != nil {
				return err
			}
			logs[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("batch.count", len(logs)))
	return logs, nil
}

func (s *Store) read(ctx context.Context, key string) (batchlog.BatchLog, error) {
	var l batchlog.BatchLog

	rc, _, err := s.objects.Get(ctx, "", key)
	if err != nil {
		return l, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return l, errors.Wrapf(err, "failed to read %s", key)
	}
	if err := json.Unmarshal(data, &l); err != nil {
		return l, errors.Wrapf(err, "failed to decode %s", key)
	}
	return l, nil
}
