package batchlog

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pure-golang/bulkmail/dispatch"
)

// Row is one outcome flattened together with its batch.
type Row struct {
	ID        string          `json:"id"`
	BatchID   string          `json:"batchId"`
	Subject   string          `json:"subject"`
	Email     string          `json:"email"`
	Status    dispatch.Status `json:"status"`
	Error     *string         `json:"error"`
	Timestamp time.Time       `json:"timestamp"`
}

// Reader serves the log history, newest first.
type Reader struct {
	store Store
}

// NewReader creates a Reader over store.
func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

// Batches returns every batch, newest first. An empty store yields an empty, non-nil slice.
func (r *Reader) Batches(ctx context.Context) ([]BatchLog, error) {
	ctx, span := tracer.Start(ctx, "BatchLog.Batches")
	defer span.End()

	logs, err := r.store.ReadAll(ctx)
	if err != nil {
		err = &StoreError{Op: OpRead, Err: err}
		recordError(span, err)
		return []BatchLog{}, err
	}
	if logs == nil {
		logs = []BatchLog{}
	}

	SortNewestFirst(logs)
	span.SetAttributes(attribute.Int("batchlog.count", len(logs)))
	span.SetStatus(codes.Ok, "")
	return logs, nil
}

// Rows returns every outcome of every batch, newest outcome first.
func (r *Reader) Rows(ctx context.Context) ([]Row, error) {
	logs, err := r.Batches(ctx)
	if err != nil {
		return []Row{}, err
	}

	rows := make([]Row, 0)
	for _, l := range logs {
		for _, o := range l.Recipients {
			row := Row{
				ID:        o.ID,
				BatchID:   l.ID,
				Subject:   l.Subject,
				Email:     o.Recipient,
				Status:    o.Status(),
				Timestamp: o.Timestamp,
			}
			if row.Status == dispatch.StatusFailed {
				reason := o.Reason()
				row.Error = &reason
			}
			rows = append(rows, row)
		}
	}

	// stable: outcomes with equal timestamps keep batch order
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.After(rows[j].Timestamp)
	})
	return rows, nil
}

// SortNewestFirst orders logs by CreatedAt desc, then ID desc.
func SortNewestFirst(logs []BatchLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].CreatedAt.After(logs[j].CreatedAt)
		}
		return logs[i].ID > logs[j].ID
	})
}
