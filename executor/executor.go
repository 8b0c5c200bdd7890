// Package executor описывает запуск внешних программ, например локального sendmail.
package executor

import (
	"context"
	"io"
)

// Executor запускает программу с аргументами и отдаёт её stdout.
// stdin может быть nil. Ошибка содержит stderr процесса.
type Executor interface {
	Execute(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error)
	io.Closer
}
