package noop

import (
	"log/slog"
)

// NewNoop отбрасывает все записи; используется в тестах и при LOG_PROVIDER=noop.
func NewNoop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
