package minio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/storage"
)

// Client wraps minio.Client for S3-compatible storage operations.
type Client struct {
	client *minio.Client
	cfg    Config
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

// ClientOptions contains options for client creation.
type ClientOptions struct {
	Logger *slog.Logger
}

// NewClient creates a client, verifies the bucket and creates it if cfg.CreateBucket is set.
func NewClient(ctx context.Context, cfg Config, options *ClientOptions) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if options == nil {
		options = &ClientOptions{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	logger := options.Logger.WithGroup("s3")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Region: cfg.Region,
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create S3 client")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.DefaultBucket)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to S3 storage")
	}
	if !exists {
		if !cfg.CreateBucket {
			return nil, &storage.StorageError{Code: storage.CodeBucketNotFound, Bucket: cfg.DefaultBucket}
		}
		if err := client.MakeBucket(ctx, cfg.DefaultBucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, errors.Wrapf(err, "failed to create bucket %s", cfg.DefaultBucket)
		}
		logger.Info("S3 bucket created", "bucket", cfg.DefaultBucket)
	}

	logger.Info("S3 client initialized", "endpoint", cfg.Endpoint, "region", cfg.Region, "bucket", cfg.DefaultBucket)

	return &Client{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Close marks the client closed. minio.Client holds no connection of its own.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.logger.Info("S3 client closed")
	return nil
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
