package minio

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/batchlog/batchlogtest"
	"github.com/pure-golang/bulkmail/storage"
)

// bucket is an in-memory storage.Storage.
type bucket struct {
	mx      sync.Mutex
	objects map[string][]byte
	listErr error
}

func newBucket() *bucket {
	return &bucket{objects: map[string][]byte{}}
}

func (b *bucket) Put(_ context.Context, _, key string, r io.Reader, _ int64, _ *storage.PutOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	b.objects[key] = data
	return nil
}

func (b *bucket) Get(_ context.Context, _, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, nil, &storage.StorageError{Code: storage.CodeNotFound, Key: key}
	}
	return io.NopCloser(bytes.NewReader(data)), &storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (b *bucket) Exists(_ context.Context, _, key string) (bool, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	_, ok := b.objects[key]
	return ok, nil
}

func (b *bucket) List(_ context.Context, _ string, opts *storage.ListOptions) ([]storage.ObjectInfo, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []storage.ObjectInfo
	for key, data := range b.objects {
		if strings.HasPrefix(key, opts.Prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *bucket) Close() error { return nil }

func TestStoreContract(t *testing.T) {
	batchlogtest.Run(t, func(t *testing.T) batchlog.Store {
		return New(newBucket(), Config{Prefix: "batch-logs/"})
	})
}

func TestStore_KeyLayout(t *testing.T) {
	b := newBucket()
	s := New(b, Config{Prefix: "batch-logs/"})
	ts := time.Date(2026, 3, 2, 1, 0, 0, 5, time.UTC)

	_, err := batchlog.NewWriter(s, &batchlog.WriterOptions{
		Now:   func() time.Time { return ts },
		NewID: func() string { return "b1" },
	}).Write(context.Background(), "s", batchlogtest.Result(1, 0, ts))
	require.NoError(t, err)

	_, ok := b.objects["batch-logs/20260302T010000.000000005Z_b1.json"]
	assert.True(t, ok)
}

func TestStore_Duplicate(t *testing.T) {
	s := New(newBucket(), Config{})
	ts := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	log := batchlog.BatchLog{ID: "dup", CreatedAt: ts}

	require.NoError(t, s.Append(context.Background(), log))
	assert.Error(t, s.Append(context.Background(), log))
}

func TestStore_ReadAllSkipsForeignObjects(t *testing.T) {
	b := newBucket()
	b.objects["batch-logs/readme.txt"] = []byte("hi")
	s := New(b, Config{Prefix: "batch-logs/"})

	logs, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestStore_CorruptObject(t *testing.T) {
	b := newBucket()
	b.objects["batch-logs/x.json"] = []byte("{")
	s := New(b, Config{Prefix: "batch-logs/"})

	_, err := s.ReadAll(context.Background())
	assert.Error(t, err)
}

func TestStore_ListError(t *testing.T) {
	b := newBucket()
	b.listErr = &storage.StorageError{Code: storage.CodeBucketNotFound}
	s := New(b, Config{Prefix: "batch-logs/"})

	_, err := s.ReadAll(context.Background())
	assert.True(t, storage.HasCode(err, storage.CodeBucketNotFound))
}
