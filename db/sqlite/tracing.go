package sqlite

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/db/sqlite")

// WithTracing создает новый спан для операции с базой данных
func (c *Connection) WithTracing(ctx context.Context, operation string, query string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("sqlite.%s", operation))
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", operation),
		attribute.String("db.statement", query),
	)
	return ctx, span
}

// WithTracing создает новый спан для операции в транзакции
func (tx *Tx) WithTracing(ctx context.Context, operation string, query string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("sqlite.tx.%s", operation))
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", operation),
		attribute.String("db.statement", query),
		attribute.Bool("db.transaction", true),
	)
	return ctx, span
}
