package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := Connect(ctx, Config{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to ping redis")
}

func TestKeyspace(t *testing.T) {
	assert.Equal(t, "bulkmail:revoked", keyspace("bulkmail:revoked:0b7c"))
	assert.Equal(t, "batches", keyspace("batches:b1"))
	assert.Equal(t, "", keyspace("plain"))
	assert.Equal(t, "", keyspace(""))
}
