package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Tx представляет транзакцию в базе данных
type Tx struct {
	tx  *sqlx.Tx
	cfg Config
}

// TxFunc определяет функцию, которая будет выполняться в рамках транзакции
type TxFunc func(ctx context.Context, tx *Tx) error

// BeginTx начинает новую транзакцию. The DSN asks for BEGIN IMMEDIATE,
// so concurrent writers wait on busy_timeout instead of failing on upgrade.
func (c *Connection) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := c.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	return &Tx{
		tx:  tx,
		cfg: c.cfg,
	}, nil
}

// RunTx выполняет функцию в рамках транзакции
func (c *Connection) RunTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := c.BeginTx(ctx)
	if err != nil {
		return err
	}

	ctx, span := c.WithTracing(ctx, "RunTx", "")
	defer span.End()

	// Автоматический Rollback при панике или ошибке
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				span.RecordError(rbErr)
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				span.RecordError(rbErr)
				err = errors.Wrap(err, rbErr.Error())
			}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		span.RecordError(err)
		return err
	}

	if err = tx.Commit(); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// Commit фиксирует транзакцию
func (tx *Tx) Commit() error {
	_, span := tx.WithTracing(context.Background(), "Commit", "")
	defer span.End()

	if err := tx.tx.Commit(); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Rollback откатывает транзакцию
func (tx *Tx) Rollback() error {
	_, span := tx.WithTracing(context.Background(), "Rollback", "")
	defer span.End()

	if err := tx.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		span.RecordError(err)
		return errors.Wrap(err, "failed to rollback transaction")
	}
	return nil
}

// Select выполняет запрос в транзакции и заполняет срез записей
func (tx *Tx) Select(ctx context.Context, dst any, query string, args ...any) error {
	ctx, cancel := WithTimeout(ctx, tx.cfg.QueryTimeout)
	defer cancel()

	ctx, span := tx.WithTracing(ctx, "Select", query)
	defer span.End()

	if err := tx.tx.SelectContext(ctx, dst, query, args...); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to execute select query in transaction")
	}
	return nil
}

// Exec выполняет запрос в транзакции и возвращает результат
func (tx *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, cancel := WithTimeout(ctx, tx.cfg.QueryTimeout)
	defer cancel()

	ctx, span := tx.WithTracing(ctx, "Exec", query)
	defer span.End()

	result, err := tx.tx.ExecContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to execute query in transaction")
	}
	return result, nil
}

// NamedExec выполняет именованный запрос в транзакции
func (tx *Tx) NamedExec(ctx context.Context, query string, arg any) (sql.Result, error) {
	ctx, cancel := WithTimeout(ctx, tx.cfg.QueryTimeout)
	defer cancel()

	ctx, span := tx.WithTracing(ctx, "NamedExec", query)
	defer span.End()

	result, err := tx.tx.NamedExecContext(ctx, query, arg)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to execute named query in transaction")
	}
	return result, nil
}
