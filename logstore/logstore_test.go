package logstore

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/batchlog/batchlogtest"
	"github.com/pure-golang/bulkmail/batchlog/file"
	"github.com/pure-golang/bulkmail/db/sqlite"
	"github.com/pure-golang/bulkmail/kv/redis"
)

func TestOpen_File(t *testing.T) {
	s, err := Open(context.Background(), Config{
		Provider: ProviderFile,
		File:     file.Config{Path: filepath.Join(t.TempDir(), "logs.json")},
	})
	require.NoError(t, err)
	defer s.Close()

	roundTrip(t, s)
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), Config{
		Provider: ProviderSQLite,
		SQLite:   sqlite.Config{Path: filepath.Join(t.TempDir(), "logs.db"), BusyTimeout: time.Second, MaxOpenConns: 2},
	})
	require.NoError(t, err)

	roundTrip(t, s)
	assert.NoError(t, s.Close())
}

func TestOpen_DefaultsToFile(t *testing.T) {
	s, err := Open(context.Background(), Config{File: file.Config{Path: filepath.Join(t.TempDir(), "x.json")}})
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, s.Store)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), Config{Provider: "mongo"})
	assert.ErrorContains(t, err, "unknown log store provider: mongo")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = Open(ctx, Config{
		Provider: ProviderRedis,
		Redis:    redis.Config{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond},
	})
	assert.ErrorContains(t, err, "failed to open redis log store")
}

type closer struct {
	name  string
	order *[]string
	err   error
}

func (c closer) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestStore_CloseReverseOrder(t *testing.T) {
	var order []string
	s := &Store{closers: []io.Closer{
		closer{name: "first", order: &order, err: errors.New("first failed")},
		closer{name: "second", order: &order},
	}}

	assert.EqualError(t, s.Close(), "first failed")
	assert.Equal(t, []string{"second", "first"}, order)
}

func roundTrip(t *testing.T, s batchlog.Store) {
	t.Helper()
	ctx := context.Background()
	w := batchlog.NewWriter(s, nil)
	_, err := w.Write(ctx, "hello", batchlogtest.Result(3, 2, time.Now()))
	require.NoError(t, err)

	logs, err := batchlog.NewReader(s).Batches(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 3, logs[0].TotalRecipients)
}
