// Package postgres stores batch logs in an insert-only PostgreSQL table.
// Outcomes live in a JSONB column of their batch row, so every append is one INSERT.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/db/pg/pgx"
	"github.com/pure-golang/bulkmail/dispatch"
)

var _ batchlog.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS batch_logs (
	id               TEXT PRIMARY KEY,
	subject          TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	total_recipients INTEGER NOT NULL,
	sent_count       INTEGER NOT NULL,
	failed_count     INTEGER NOT NULL,
	recipients       JSONB NOT NULL,
	CHECK (sent_count + failed_count = total_recipients)
);
CREATE INDEX IF NOT EXISTS batch_logs_created_at ON batch_logs (created_at DESC, id DESC);
`

// Store implements batchlog.Store on a pgx pool.
type Store struct {
	db *pgx.DB
}

// New creates the table if it does not exist.
func New(ctx context.Context, db *pgx.DB) (*Store, error) {
	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "failed to migrate batch log schema")
	}
	return &Store{db: db}, nil
}

// Append inserts one row. A duplicate id is reported, never overwritten.
func (s *Store) Append(ctx context.Context, log batchlog.BatchLog) error {
	recipients, err := json.Marshal(log.Recipients)
	if err != nil {
		return errors.Wrap(err, "failed to encode outcomes")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO batch_logs (id, subject, created_at, total_recipients, sent_count, failed_count, recipients)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.Subject, log.CreatedAt, log.TotalRecipients, log.SentCount, log.FailedCount, recipients,
	)
	if pgx.IsDuplicate(err) {
		return errors.Errorf("batch %s already exists", log.ID)
	}
	return errors.Wrapf(err, "failed to insert batch %s", log.ID)
}

// ReadAll returns every batch, newest first.
func (s *Store) ReadAll(ctx context.Context) ([]batchlog.BatchLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, subject, created_at, total_recipients, sent_count, failed_count, recipients
		FROM batch_logs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query batch logs")
	}

	logs, err := pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (batchlog.BatchLog, error) {
		var (
			l          batchlog.BatchLog
			createdAt  time.Time
			recipients []byte
		)
		if err := row.Scan(&l.ID, &l.Subject, &createdAt, &l.TotalRecipients, &l.SentCount, &l.FailedCount, &recipients); err != nil {
			return l, err
		}
		l.CreatedAt = createdAt.UTC()
		l.Recipients = []dispatch.Outcome{}
		if err := json.Unmarshal(recipients, &l.Recipients); err != nil {
			return l, errors.Wrapf(err, "failed to decode outcomes of batch %s", l.ID)
		}
		return l, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read batch logs")
	}
	return logs, nil
}
