//go:build integration
// +build integration

package minio

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/batchlog/batchlogtest"
	s3 "github.com/pure-golang/bulkmail/storage/minio"
)

func TestStoreContract_Minio(t *testing.T) {
	ctx := context.Background()

	container, err := tcminio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	objects, err := s3.NewDefault(ctx, s3.Config{
		Endpoint:      strings.TrimPrefix(endpoint, "http://"),
		AccessKey:     "minioadmin",
		SecretKey:     "minioadmin",
		Region:        "us-east-1",
		DefaultBucket: "bulkmail-logs",
		CreateBucket:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = objects.Close() })

	// Every store gets its own prefix, so each one starts empty.
	var n atomic.Int32
	batchlogtest.Run(t, func(t *testing.T) batchlog.Store {
		return New(objects, Config{Prefix: fmt.Sprintf("run-%d/", n.Add(1))})
	})
}
