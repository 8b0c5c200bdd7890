package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetExists(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, s.Set(ctx, "forever", "v", 0))

	ok, _ = s.Exists(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = s.Exists(ctx, "k")
	assert.False(t, ok, "expired key")

	ok, _ = s.Exists(ctx, "forever")
	assert.True(t, ok)
}

func TestStore_LRange(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	empty, err := s.LRange(ctx, "l", 0, -1)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, s.RPush(ctx, "l", "a", "b"))
	require.NoError(t, s.RPush(ctx, "l", "c"))
	require.NoError(t, s.RPush(ctx, "l"))

	tests := []struct {
		start, stop int64
		want        []string
	}{
		{0, -1, []string{"a", "b", "c"}},
		{1, 1, []string{"b"}},
		{-2, -1, []string{"b", "c"}},
		{0, 100, []string{"a", "b", "c"}},
		{5, 10, []string{}},
		{2, 1, []string{}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d..%d", tt.start, tt.stop), func(t *testing.T) {
			got, err := s.LRange(ctx, "l", tt.start, tt.stop)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ok, _ := s.Exists(ctx, "l")
	assert.True(t, ok)
}

func TestStore_LRangeReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.RPush(ctx, "l", "a"))

	got, _ := s.LRange(ctx, "l", 0, -1)
	got[0] = "changed"

	again, _ := s.LRange(ctx, "l", 0, -1)
	assert.Equal(t, []string{"a"}, again)
}

func TestStore_ConcurrentRPush(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.RPush(ctx, "l", fmt.Sprint(i))
		}(i)
	}
	wg.Wait()

	got, err := s.LRange(ctx, "l", 0, -1)
	require.NoError(t, err)
	assert.Len(t, got, 100)
}

func TestStore_PingClose(t *testing.T) {
	s := NewStore()
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
