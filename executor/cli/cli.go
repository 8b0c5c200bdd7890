package cli

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/executor"
)

var _ executor.Executor = (*Executor)(nil)

// ErrClosed возвращается Execute после Close
var ErrClosed = errors.New("executor is closed")

// Executor реализует интерфейс executor.Executor для CLI утилит
type Executor struct {
	cmd     string
	timeout time.Duration
	closed  bool
	mx      sync.RWMutex
}

// New создаёт новый CLI executor
func New(cfg Config) *Executor {
	return &Executor{
		cmd:     cfg.Command,
		timeout: cfg.Timeout,
	}
}

// Start проверяет наличие команды в системе
func (e *Executor) Start() error {
	if e.cmd == "" {
		return errors.New("command is empty")
	}
	if _, err := exec.LookPath(e.cmd); err != nil {
		return errors.Wrapf(err, "command %s not found", e.cmd)
	}
	return nil
}

// Execute выполняет команду; при ошибке stderr попадает в текст ошибки
func (e *Executor) Execute(ctx context.Context, stdin io.Reader, args ...string) (out []byte, err error) {
	ctx, span := startSpan(ctx, e.name(), len(args))
	defer func() { endSpan(span, err, len(out)) }()

	e.mx.RLock()
	defer e.mx.RUnlock()

	if e.closed {
		return nil, ErrClosed
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.cmd, args...)
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	recordExecution(e.name(), failureReason(ctx, runErr), time.Since(start))

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = errors.Wrap(ctxErr, runErr.Error())
		}
		return stdout.Bytes(), errors.Wrapf(runErr, "command failed: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Close закрывает executor; выполняющиеся команды завершаются штатно
func (e *Executor) Close() error {
	e.mx.Lock()
	defer e.mx.Unlock()

	e.closed = true
	return nil
}

func (e *Executor) name() string {
	return filepath.Base(e.cmd)
}

func failureReason(ctx context.Context, err error) string {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return ""
	case ctx.Err() != nil:
		return "timeout"
	case errors.As(err, &exitErr):
		return "exit_code"
	default:
		return "start"
	}
}
