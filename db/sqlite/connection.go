package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite" // pure Go SQLite driver, registers "sqlite"
)

// Connection представляет соединение с базой SQLite через sqlx
type Connection struct {
	*sqlx.DB
	cfg Config
}

// Connect opens (creating if needed) the database file and pings it.
func Connect(ctx context.Context, cfg Config) (*Connection, error) {
	ctx, span := tracer.Start(ctx, "sqlite.Connect")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.name", cfg.Path),
	)

	if cfg.Path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(err, "failed to create directory for %s", cfg.Path)
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", cfg.DSN())
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to open SQLite")
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
		span.SetAttributes(attribute.Int("db.max_open_conns", cfg.MaxOpenConns))
	}

	return &Connection{
		DB:  db,
		cfg: cfg,
	}, nil
}

// Close закрывает соединение с базой данных
func (c *Connection) Close() error {
	_, span := tracer.Start(context.Background(), "sqlite.Close")
	defer span.End()

	if err := c.DB.Close(); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to close database connection")
	}
	return nil
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
