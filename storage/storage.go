// Package storage describes the object store used for batch log archives.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo represents metadata about a stored object.
type ObjectInfo struct {
	Key          string            // Object key/path
	Size         int64             // Object size in bytes
	LastModified time.Time         // Last modification time
	ETag         string            // Entity tag for versioning
	ContentType  string            // Content type
	Metadata     map[string]string // User-defined metadata
}

// PutOptions contains optional parameters for Put operation.
type PutOptions struct {
	ContentType string            // MIME type
	Metadata    map[string]string // User metadata
}

// ListOptions contains optional parameters for List operation.
type ListOptions struct {
	Prefix    string // Object key prefix
	Recursive bool   // Whether to list recursively
}

// Storage is the interface for object storage operations.
// An empty bucket means the configured default bucket.
type Storage interface {
	// Put stores an object. The object becomes visible only when the upload completes.
	Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts *PutOptions) error

	// Get retrieves an object. The caller closes the reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, *ObjectInfo, error)

	// Exists checks if an object exists.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// List returns objects sorted by key.
	List(ctx context.Context, bucket string, opts *ListOptions) ([]ObjectInfo, error)

	io.Closer
}
