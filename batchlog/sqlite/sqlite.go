// Package sqlite stores batch logs in an embedded SQLite database.
// A batch and its outcomes are inserted in one transaction.
package sqlite

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/db/sqlite"
	"github.com/pure-golang/bulkmail/dispatch"
)

var _ batchlog.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS batch_logs (
	id               TEXT PRIMARY KEY,
	subject          TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	total_recipients INTEGER NOT NULL,
	sent_count       INTEGER NOT NULL,
	failed_count     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS delivery_outcomes (
	batch_id   TEXT NOT NULL REFERENCES batch_logs(id),
	position   INTEGER NOT NULL,
	id         TEXT NOT NULL,
	recipient  TEXT NOT NULL,
	status     TEXT NOT NULL,
	error      TEXT,
	created_at TEXT NOT NULL,
	PRIMARY KEY (batch_id, position)
);

CREATE INDEX IF NOT EXISTS batch_logs_created_at ON batch_logs (created_at DESC);
`

type batchRow struct {
	ID              string `db:"id"`
	Subject         string `db:"subject"`
	CreatedAt       string `db:"created_at"`
	TotalRecipients int    `db:"total_recipients"`
	SentCount       int    `db:"sent_count"`
	FailedCount     int    `db:"failed_count"`
}

type outcomeRow struct {
	BatchID   string  `db:"batch_id"`
	Position  int     `db:"position"`
	ID        string  `db:"id"`
	Recipient string  `db:"recipient"`
	Status    string  `db:"status"`
	Error     *string `db:"error"`
	CreatedAt string  `db:"created_at"`
}

// Store implements batchlog.Store on top of db/sqlite.
type Store struct {
	conn *sqlite.Connection
}

// New creates the tables if they do not exist.
func New(ctx context.Context, conn *sqlite.Connection) (*Store, error) {
	if _, err := conn.Exec(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "failed to migrate batch log schema")
	}
	return &Store{conn: conn}, nil
}

// Append inserts the batch and its outcomes atomically.
func (s *Store) Append(ctx context.Context, log batchlog.BatchLog) error {
	return s.conn.RunTx(ctx, func(ctx context.Context, tx *sqlite.Tx) error {
		_, err := tx.NamedExec(ctx, `
			INSERT INTO batch_logs (id, subject, created_at, total_recipients, sent_count, failed_count)
			VALUES (:id, :subject, :created_at, :total_recipients, :sent_count, :failed_count)`,
			batchRow{
				ID:              log.ID,
				Subject:         log.Subject,
				CreatedAt:       formatTime(log.CreatedAt),
				TotalRecipients: log.TotalRecipients,
				SentCount:       log.SentCount,
				FailedCount:     log.FailedCount,
			})
		if err != nil {
			return errors.Wrapf(err, "failed to insert batch %s", log.ID)
		}

		for i, o := range log.Recipients {
			row := outcomeRow{
				BatchID:   log.ID,
				Position:  i,
				ID:        o.ID,
				Recipient: o.Recipient,
				Status:    string(o.Status()),
				CreatedAt: formatTime(o.Timestamp),
			}
			if o.Status() == dispatch.StatusFailed {
				reason := o.Reason()
				row.Error = &reason
			}

			_, err := tx.NamedExec(ctx, `
				INSERT INTO delivery_outcomes (batch_id, position, id, recipient, status, error, created_at)
				VALUES (:batch_id, :position, :id, :recipient, :status, :error, :created_at)`, row)
			if err != nil {
				return errors.Wrapf(err, "failed to insert outcome %d of batch %s", i, log.ID)
			}
		}
		return nil
	})
}

// ReadAll returns every batch with its outcomes, newest first.
func (s *Store) ReadAll(ctx context.Context) ([]batchlog.BatchLog, error) {
	var batches []batchRow
	err := s.conn.Select(ctx, &batches, `
		SELECT id, subject, created_at, total_recipients, sent_count, failed_count
		FROM batch_logs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}

	var outcomes []outcomeRow
	err = s.conn.Select(ctx, &outcomes, `
		SELECT batch_id, position, id, recipient, status, error, created_at
		FROM delivery_outcomes ORDER BY batch_id, position`)
	if err != nil {
		return nil, err
	}

	byBatch := make(map[string][]dispatch.Outcome, len(batches))
	for _, r := range outcomes {
		o, err := r.outcome()
		if err != nil {
			return nil, err
		}
		byBatch[r.BatchID] = append(byBatch[r.BatchID], o)
	}

	logs := make([]batchlog.BatchLog, 0, len(batches))
	for _, b := range batches {
		createdAt, err := parseTime(b.CreatedAt)
		if err != nil {
			return nil, err
		}
		recipients := byBatch[b.ID]
		if recipients == nil {
			recipients = []dispatch.Outcome{}
		}
		logs = append(logs, batchlog.BatchLog{
			ID:              b.ID,
			Subject:         b.Subject,
			CreatedAt:       createdAt,
			TotalRecipients: b.TotalRecipients,
			SentCount:       b.SentCount,
			FailedCount:     b.FailedCount,
			Recipients:      recipients,
		})
	}
	return logs, nil
}

func (r outcomeRow) outcome() (dispatch.Outcome, error) {
	ts, err := parseTime(r.CreatedAt)
	if err != nil {
		return dispatch.Outcome{}, err
	}

	switch dispatch.Status(r.Status) {
	case dispatch.StatusSent:
		return dispatch.NewSent(r.ID, r.Recipient, ts), nil
	case dispatch.StatusFailed:
		var reason string
		if r.Error != nil {
			reason = *r.Error
		}
		return dispatch.NewFailed(r.ID, r.Recipient, reason, ts), nil
	default:
		return dispatch.Outcome{}, errors.Errorf("unknown outcome status %q", r.Status)
	}
}

// Times are stored as fixed-width UTC text so that ORDER BY created_at is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	return t, errors.Wrapf(err, "invalid stored time %q", s)
}
