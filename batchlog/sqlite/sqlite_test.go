package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/batchlog/batchlogtest"
	"github.com/pure-golang/bulkmail/db/sqlite"
	"github.com/pure-golang/bulkmail/dispatch"
)

func connect(t *testing.T) *sqlite.Connection {
	t.Helper()
	conn, err := sqlite.Connect(context.Background(), sqlite.Config{
		Path:         filepath.Join(t.TempDir(), "logs.db"),
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
		QueryTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newStore(t *testing.T) batchlog.Store {
	t.Helper()
	s, err := New(context.Background(), connect(t))
	require.NoError(t, err)
	return s
}

func TestStoreContract(t *testing.T) {
	batchlogtest.Run(t, newStore)
}

func TestStore_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 4, 4, 4, 4, 4, 123456789, time.UTC)

	in := batchlog.BatchLog{
		ID:              "b1",
		Subject:         "Hi",
		CreatedAt:       ts,
		TotalRecipients: 3,
		SentCount:       2,
		FailedCount:     1,
		Recipients: []dispatch.Outcome{
			dispatch.NewSent("o1", "c@x.io", ts),
			dispatch.NewFailed("o2", "a@x.io", "550 unknown user", ts),
			dispatch.NewSent("o3", "b@x.io", ts),
		},
	}
	require.NoError(t, s.Append(ctx, in))

	out, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in, out[0], "outcome order and nanoseconds survive")
}

func TestStore_DuplicateIDRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	ts := time.Now()

	log := batchlog.BatchLog{
		ID: "dup", Subject: "s", CreatedAt: ts, TotalRecipients: 1, SentCount: 1,
		Recipients: []dispatch.Outcome{dispatch.NewSent("o1", "a@x.io", ts)},
	}
	require.NoError(t, s.Append(ctx, log))
	assert.Error(t, s.Append(ctx, log))

	out, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Recipients, 1)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	cfg := sqlite.Config{Path: path, BusyTimeout: time.Second, MaxOpenConns: 1}
	ctx := context.Background()

	conn, err := sqlite.Connect(ctx, cfg)
	require.NoError(t, err)
	s, err := New(ctx, conn)
	require.NoError(t, err)
	_, err = batchlog.NewWriter(s, nil).Write(ctx, "kept", batchlogtest.Result(2, 0, time.Now()))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	conn, err = sqlite.Connect(ctx, cfg)
	require.NoError(t, err)
	defer conn.Close()
	s, err = New(ctx, conn)
	require.NoError(t, err)

	logs, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "kept", logs[0].Subject)
}
