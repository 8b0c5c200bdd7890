package file

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/batchlog/batchlogtest"
)

func newStore(t *testing.T) batchlog.Store {
	t.Helper()
	s, err := New(Config{Path: filepath.Join(t.TempDir(), "data", "email-logs.json")})
	require.NoError(t, err)
	return s
}

func TestStoreContract(t *testing.T) {
	batchlogtest.Run(t, newStore)
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestStore_DocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email-logs.json")
	s, err := New(Config{Path: path})
	require.NoError(t, err)

	ts := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	w := batchlog.NewWriter(s, &batchlog.WriterOptions{
		Now:   func() time.Time { return ts },
		NewID: func() string { return "log_1" },
	})
	_, err = w.Write(context.Background(), "Hello", batchlogtest.Result(1, 0, ts))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"emailLogs":[{
		"id":"log_1","subject":"Hello","sentAt":"2026-02-02T08:00:00Z",
		"totalRecipients":1,"sent":1,"failed":0,
		"recipients":[{"id":"o-`+strconv.FormatInt(ts.UnixNano(), 10)+`-0","to":"user0@example.com","status":"SENT","error":null,"timestamp":"2026-02-02T08:00:00Z"}]
	}]}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_ReadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email-logs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"emailLogs":[{
		"id":"log_1700000000000","subject":"Old","sentAt":"2023-11-14T22:13:20.000Z",
		"totalRecipients":1,"sent":0,"failed":1,
		"recipients":[{"id":"x","to":"a@b.c","subject":"Old","status":"FAILED","error":"Invalid login","timestamp":"2023-11-14T22:13:20.000Z"}]
	}]}`), 0o600))

	s, err := New(Config{Path: path})
	require.NoError(t, err)

	logs, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Old", logs[0].Subject)
	assert.Equal(t, "Invalid login", logs[0].Recipients[0].Reason())
	assert.NoError(t, logs[0].Validate())
}

func TestStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email-logs.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := New(Config{Path: path})
	require.NoError(t, err)

	logs, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email-logs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := New(Config{Path: path})
	require.NoError(t, err)

	_, err = s.ReadAll(context.Background())
	assert.Error(t, err)

	err = s.Append(context.Background(), batchlog.BatchLog{ID: "x"})
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data), "a failed append must not touch the file")
}
