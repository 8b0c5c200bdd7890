// Package batchlogtest contains the behaviour every batchlog.Store must show.
package batchlogtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/dispatch"
)

// Result builds a dispatch.Result with n outcomes, every failEvery-th one failed (0 = none).
func Result(n, failEvery int, ts time.Time) dispatch.Result {
	res := dispatch.Result{Outcomes: make([]dispatch.Outcome, n)}
	for i := range res.Outcomes {
		id := fmt.Sprintf("o-%d-%d", ts.UnixNano(), i)
		to := fmt.Sprintf("user%d@example.com", i)
		if failEvery > 0 && (i+1)%failEvery == 0 {
			res.Outcomes[i] = dispatch.NewFailed(id, to, "550 rejected", ts)
			res.Failed++
			continue
		}
		res.Outcomes[i] = dispatch.NewSent(id, to, ts)
		res.Sent++
	}
	return res
}

// Run exercises store through batchlog.Writer and batchlog.Reader.
// newStore must return an empty store on every call.
func Run(t *testing.T, newStore func(t *testing.T) batchlog.Store) {
	t.Run("empty store", func(t *testing.T) {
		r := batchlog.NewReader(newStore(t))

		logs, err := r.Batches(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, logs)
		assert.Empty(t, logs)

		rows, err := r.Rows(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("newest first", func(t *testing.T) {
		store := newStore(t)
		base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
		clock := base
		w := batchlog.NewWriter(store, &batchlog.WriterOptions{Now: func() time.Time { return clock }})
		r := batchlog.NewReader(store)
		ctx := context.Background()

		first, err := w.Write(ctx, "first", Result(2, 2, base))
		require.NoError(t, err)

		logs, err := r.Batches(ctx)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, first.ID, logs[0].ID)
		assert.Equal(t, "first", logs[0].Subject)
		assert.Equal(t, 2, logs[0].TotalRecipients)
		assert.Equal(t, 1, logs[0].SentCount)
		assert.Equal(t, 1, logs[0].FailedCount)
		require.Len(t, logs[0].Recipients, 2)
		assert.Equal(t, dispatch.StatusSent, logs[0].Recipients[0].Status())
		assert.Equal(t, "550 rejected", logs[0].Recipients[1].Reason())
		assert.True(t, base.Equal(logs[0].CreatedAt))

		clock = base.Add(time.Minute)
		second, err := w.Write(ctx, "second", Result(3, 0, clock))
		require.NoError(t, err)

		logs, err = r.Batches(ctx)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, second.ID, logs[0].ID)
		assert.Equal(t, first.ID, logs[1].ID)
		for _, l := range logs {
			assert.NoError(t, l.Validate())
		}

		rows, err := r.Rows(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 5)
		assert.Equal(t, second.ID, rows[0].BatchID)
		assert.Equal(t, first.ID, rows[4].BatchID)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		store := newStore(t)
		w := batchlog.NewWriter(store, nil)
		ctx := context.Background()
		now := time.Now()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, n := range []int{3, 5} {
			wg.Add(1)
			go func(i, n int) {
				defer wg.Done()
				_, errs[i] = w.Write(ctx, fmt.Sprintf("batch-%d", n), Result(n, 0, now.Add(time.Duration(i)*time.Millisecond)))
			}(i, n)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		logs, err := batchlog.NewReader(store).Batches(ctx)
		require.NoError(t, err)
		require.Len(t, logs, 2)

		var outcomes int
		for _, l := range logs {
			outcomes += len(l.Recipients)
		}
		assert.Equal(t, 8, outcomes)
	})

	t.Run("independent writers", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		now := time.Now()

		const writers = 8
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// separate Writers share only the store's own locking
				_, err := batchlog.NewWriter(store, nil).Write(ctx, "s", Result(1, 0, now))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		logs, err := batchlog.NewReader(store).Batches(ctx)
		require.NoError(t, err)
		assert.Len(t, logs, writers)
	})
}
