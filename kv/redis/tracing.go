package redis

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/kv/redis")

// startSpan пишет в span только пространство ключа: хвост ключа бывает id токена
func startSpan(ctx context.Context, operation string, key string, db int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "redis"),
		attribute.String("db.operation.name", strings.ToUpper(operation)),
		attribute.Int("db.namespace", db),
	}
	if ns := keyspace(key); ns != "" {
		attrs = append(attrs, attribute.String("redis.keyspace", ns))
	}
	return tracer.Start(ctx, "redis."+operation, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

// keyspace: "bulkmail:revoked:abc" -> "bulkmail:revoked"
func keyspace(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 {
		return ""
	}
	return key[:i]
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
