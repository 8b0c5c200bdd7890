package minio

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/bulkmail/storage"
)

var _ storage.Storage = (*Storage)(nil)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/storage/minio")

var errClosed = &storage.StorageError{Code: storage.CodeInternalError, Err: errors.New("client is closed")}

// Storage implements storage.Storage for S3-compatible storage.
type Storage struct {
	client *Client
	logger *slog.Logger
}

// StorageOptions contains options for Storage creation.
type StorageOptions struct {
	Logger *slog.Logger
}

// NewStorage creates a new S3 Storage instance.
func NewStorage(client *Client, opts *StorageOptions) *Storage {
	if opts == nil {
		opts = &StorageOptions{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Storage{
		client: client,
		logger: opts.Logger.WithGroup("storage").With("backend", "s3"),
	}
}

// NewDefault creates a Storage with a new client.
func NewDefault(ctx context.Context, cfg Config) (*Storage, error) {
	client, err := NewClient(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return NewStorage(client, nil), nil
}

func (s *Storage) start(ctx context.Context, op, bucket, key string) (context.Context, trace.Span, string) {
	if bucket == "" {
		bucket = s.client.cfg.DefaultBucket
	}
	ctx, span := tracer.Start(ctx, "S3."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("bucket", bucket))
	if key != "" {
		span.SetAttributes(attribute.String("key", key))
	}
	return ctx, span, bucket
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Put stores an object. size -1 streams with multipart upload.
func (s *Storage) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts *storage.PutOptions) error {
	ctx, span, bucket := s.start(ctx, "Put", bucket, key)
	defer span.End()

	if s.client.IsClosed() {
		recordError(span, errClosed)
		return errClosed
	}
	if opts == nil {
		opts = &storage.PutOptions{}
	}

	info, err := s.client.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		recordError(span, err)
		return toStorageError(err, bucket, key)
	}

	span.SetAttributes(
		attribute.Int64("size", info.Size),
		attribute.String("etag", info.ETag),
	)
	span.SetStatus(codes.Ok, "")

	s.logger.Debug("Object stored", "bucket", bucket, "key", key, "size", info.Size)
	return nil
}

// Get retrieves an object. A missing object is storage.CodeNotFound.
func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	ctx, span, bucket := s.start(ctx, "Get", bucket, key)
	defer span.End()

	if s.client.IsClosed() {
		recordError(span, errClosed)
		return nil, nil, errClosed
	}

	obj, err := s.client.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		recordError(span, err)
		return nil, nil, toStorageError(err, bucket, key)
	}

	// GetObject is lazy, Stat performs the request
	stat, err := obj.Stat()
	if err != nil {
		if closeErr := obj.Close(); closeErr != nil {
			s.logger.With("error", closeErr).Error("failed to close object after stat error")
		}
		recordError(span, err)
		return nil, nil, toStorageError(err, bucket, key)
	}

	span.SetAttributes(attribute.Int64("size", stat.Size))
	span.SetStatus(codes.Ok, "")

	return obj, &storage.ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		LastModified: stat.LastModified,
		ETag:         stat.ETag,
		ContentType:  stat.ContentType,
		Metadata:     stat.UserMetadata,
	}, nil
}

// Exists checks if an object exists.
func (s *Storage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	ctx, span, bucket := s.start(ctx, "Exists", bucket, key)
	defer span.End()

	if s.client.IsClosed() {
		recordError(span, errClosed)
		return false, errClosed
	}

	_, err := s.client.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		serr := toStorageError(err, bucket, key)
		if storage.IsNotFound(serr) {
			span.SetStatus(codes.Ok, "")
			return false, nil
		}
		recordError(span, err)
		return false, serr
	}

	span.SetStatus(codes.Ok, "")
	return true, nil
}

// List returns objects sorted by key. Directory markers are skipped.
func (s *Storage) List(ctx context.Context, bucket string, opts *storage.ListOptions) ([]storage.ObjectInfo, error) {
	ctx, span, bucket := s.start(ctx, "List", bucket, "")
	defer span.End()

	if s.client.IsClosed() {
		recordError(span, errClosed)
		return nil, errClosed
	}
	if opts == nil {
		opts = &storage.ListOptions{}
	}
	span.SetAttributes(
		attribute.String("prefix", opts.Prefix),
		attribute.Bool("recursive", opts.Recursive),
	)

	objects := []storage.ObjectInfo{}
	for object := range s.client.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    opts.Prefix,
		Recursive: opts.Recursive,
	}) {
		if object.Err != nil {
			recordError(span, object.Err)
			return nil, toStorageError(object.Err, bucket, "")
		}
		if strings.HasSuffix(object.Key, "/") && object.Size == 0 {
			continue
		}

		objects = append(objects, storage.ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ETag:         object.ETag,
			ContentType:  object.ContentType,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	span.SetAttributes(attribute.Int("object_count", len(objects)))
	span.SetStatus(codes.Ok, "")
	return objects, nil
}

// Close closes the storage connection.
func (s *Storage) Close() error {
	return s.client.Close()
}
