package logger

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/pure-golang/bulkmail/logger/devslog"
	"github.com/pure-golang/bulkmail/logger/noop"
	"github.com/pure-golang/bulkmail/logger/stdjson"
)

type Level string
type Provider string
type contextKeyT string

var contextKey = contextKeyT("github.com/pure-golang/bulkmail/logger")

const (
	INFO  Level = "info"
	ERROR Level = "error"
	WARN  Level = "warn"
	DEBUG Level = "debug"

	ProviderDevSlog Provider = "dev"      // for dev
	ProviderStdJson Provider = "std_json" // for production
	ProviderNoop    Provider = "noop"     // for unit tests
)

type Config struct {
	Provider Provider `envconfig:"LOG_PROVIDER" default:"std_json"`
	Level    Level    `envconfig:"LOG_LEVEL" default:"info"`
	Service  string   `envconfig:"SERVICE_NAME" default:"bulkmail"`
}

// NewDefault creates a new instance of slog.Logger using Config.
func NewDefault(c Config) *slog.Logger {
	var l *slog.Logger
	level := convertLevel(c.Level)
	switch c.Provider {
	case ProviderDevSlog:
		l = devslog.NewDefault(level)
	case ProviderNoop:
		return noop.NewNoop()
	case ProviderStdJson:
		fallthrough
	default:
		l = stdjson.NewDefault(level)
	}

	if c.Service != "" {
		l = l.With("service", c.Service)
	}
	return l
}

// InitDefault creates a new instance of slog.Logger and sets it as default.
func InitDefault(c Config) {
	slog.SetDefault(NewDefault(c))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		slog.Default().Error(err.Error())
	}))
}

// FromContext extracts logger from context or returns default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}

// NewContext packs logger into context.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey, l)
}

// With returns a context whose logger carries the extra attributes.
func With(ctx context.Context, args ...any) context.Context {
	return NewContext(ctx, FromContext(ctx).With(args...))
}

// WithErr returns default logger with error.
func WithErr(err error) *slog.Logger {
	return appendErr(slog.Default(), err)
}

// FromContextWithErr extracts logger from context and attaches error field.
func FromContextWithErr(ctx context.Context, err error) *slog.Logger {
	return appendErr(FromContext(ctx), err)
}

// FromContextWithErrIf is FromContextWithErr, but no-op when err == nil.
func FromContextWithErrIf(ctx context.Context, err error) *slog.Logger {
	if err == nil {
		return noop.NewNoop()
	}

	return FromContextWithErr(ctx, err)
}

func appendErr(l *slog.Logger, err error) *slog.Logger {
	var stackTracer interface {
		StackTrace() errors.StackTrace
	}

	if errors.As(err, &stackTracer) {
		l = l.With("stack", stackTracer.StackTrace())
	}

	return l.With("error", err.Error())
}

func convertLevel(level Level) slog.Level {
	switch level {
	case INFO:
		return slog.LevelInfo
	case ERROR:
		return slog.LevelError
	case WARN:
		return slog.LevelWarn
	case DEBUG:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
