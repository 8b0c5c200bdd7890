package pgx

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/tracelog"

	"github.com/pure-golang/bulkmail/logger"
)

// Logger routes pgx trace logs to the context logger under the "postgres" group.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	attrs := make([]slog.Attr, 0, len(data))
	for k, v := range data {
		switch k {
		case "time":
			if d, ok := v.(time.Duration); ok {
				attrs = append(attrs, slog.Int64("duration_ms", d.Milliseconds()))
				continue
			}
		case "args":
			// query arguments may carry recipient addresses
			continue
		}
		attrs = append(attrs, slog.Any(k, v))
	}

	logger.FromContext(ctx).WithGroup("postgres").LogAttrs(ctx, slogLevel(level), msg, attrs...)
}

func slogLevel(level tracelog.LogLevel) slog.Level {
	switch level {
	case tracelog.LogLevelTrace:
		return slog.LevelDebug - 1
	case tracelog.LogLevelDebug:
		return slog.LevelDebug
	case tracelog.LogLevelInfo:
		return slog.LevelInfo
	case tracelog.LogLevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// parseTraceLogLevel falls back to none for unknown values.
func parseTraceLogLevel(lvl string) tracelog.LogLevel {
	logLevel, err := tracelog.LogLevelFromString(lvl)
	if err != nil {
		return tracelog.LogLevelNone
	}
	return logLevel
}
