package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// Querier определяет интерфейс для выполнения запросов к базе данных
type Querier interface {
	Select(ctx context.Context, dst any, query string, args ...any) error
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	NamedExec(ctx context.Context, query string, arg any) (sql.Result, error)
}

var (
	_ Querier = (*Connection)(nil)
	_ Querier = (*Tx)(nil)
)

// Select выполняет запрос и заполняет срез записей
func (c *Connection) Select(ctx context.Context, dst any, query string, args ...any) error {
	ctx, cancel := WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	ctx, span := c.WithTracing(ctx, "Select", query)
	defer span.End()

	if err := c.DB.SelectContext(ctx, dst, query, args...); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to execute select query")
	}
	return nil
}

// Exec выполняет запрос и возвращает результат
func (c *Connection) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, cancel := WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	ctx, span := c.WithTracing(ctx, "Exec", query)
	defer span.End()

	result, err := c.DB.ExecContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to execute query")
	}
	return result, nil
}

// NamedExec выполняет именованный запрос
func (c *Connection) NamedExec(ctx context.Context, query string, arg any) (sql.Result, error) {
	ctx, cancel := WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	ctx, span := c.WithTracing(ctx, "NamedExec", query)
	defer span.End()

	result, err := c.DB.NamedExecContext(ctx, query, arg)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to execute named query")
	}
	return result, nil
}

// WithTimeout добавляет таймаут к контексту
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
