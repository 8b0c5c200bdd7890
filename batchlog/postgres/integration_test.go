//go:build integration

package postgres

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/batchlog/batchlogtest"
	"github.com/pure-golang/bulkmail/db/pg/pgx"
)

func startPostgres(t *testing.T) pgx.Config {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_PASSWORD": "secret",
				"POSTGRES_USER":     "bulk",
				"POSTGRES_DB":       "bulkmail",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return pgx.Config{
		Host:          host,
		Port:          p,
		User:          "bulk",
		Password:      "secret",
		Name:          "bulkmail",
		MaxOpenConns:  4,
		TraceLogLevel: "none",
	}
}

func TestStoreContract(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	db, err := pgx.NewDefault(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	batchlogtest.Run(t, func(t *testing.T) batchlog.Store {
		_, err := db.Exec(ctx, `DROP TABLE IF EXISTS batch_logs`)
		require.NoError(t, err)
		s, err := New(ctx, db)
		require.NoError(t, err)
		return s
	})
}
