package cli

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/executor/cli")

// startSpan открывает span запуска; аргументы не пишутся, в них могут быть адреса получателей
func startSpan(ctx context.Context, command string, args int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "exec "+command, trace.WithAttributes(
		attribute.String("process.command", command),
		attribute.Int("process.args_count", args),
	))
}

func endSpan(span trace.Span, err error, stdout int) {
	span.SetAttributes(attribute.Int("process.stdout_bytes", stdout))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
