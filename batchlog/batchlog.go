// Package batchlog keeps the append-only history of dispatched batches.
package batchlog

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/dispatch"
)

// BatchLog is the durable record of one dispatched batch. It is never mutated after Write.
type BatchLog struct {
	ID              string             `json:"id"`
	Subject         string             `json:"subject"`
	CreatedAt       time.Time          `json:"sentAt"`
	TotalRecipients int                `json:"totalRecipients"`
	SentCount       int                `json:"sent"`
	FailedCount     int                `json:"failed"`
	Recipients      []dispatch.Outcome `json:"recipients"`
}

// Validate checks sent + failed == total == len(recipients) and that the counts match the outcomes.
func (l BatchLog) Validate() error {
	if l.ID == "" {
		return errors.New("batch log has no id")
	}
	if l.SentCount+l.FailedCount != l.TotalRecipients {
		return errors.Errorf("sent %d + failed %d != total %d", l.SentCount, l.FailedCount, l.TotalRecipients)
	}
	if l.TotalRecipients != len(l.Recipients) {
		return errors.Errorf("total %d != %d recipients", l.TotalRecipients, len(l.Recipients))
	}

	var sent int
	for _, o := range l.Recipients {
		if o.Status() == dispatch.StatusSent {
			sent++
		}
	}
	if sent != l.SentCount {
		return errors.Errorf("sent count %d does not match %d sent outcomes", l.SentCount, sent)
	}
	return nil
}

// Store persists batch logs. Append must make the whole record visible at once.
// Implementations must be safe for concurrent use.
type Store interface {
	ReadAll(ctx context.Context) ([]BatchLog, error)
	Append(ctx context.Context, log BatchLog) error
}

// Op is the store operation that failed.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// StoreError wraps a store I/O failure.
type StoreError struct {
	Op  Op
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("batch log %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
