// Package app wires the configured adapters into the HTTP service.
package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pure-golang/bulkmail/api"
	"github.com/pure-golang/bulkmail/auth"
	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/dispatch"
	"github.com/pure-golang/bulkmail/events"
	"github.com/pure-golang/bulkmail/httpserver/middleware"
	"github.com/pure-golang/bulkmail/httpserver/std"
	"github.com/pure-golang/bulkmail/kv"
	"github.com/pure-golang/bulkmail/logstore"
	"github.com/pure-golang/bulkmail/render"
)

type namedCloser struct {
	name string
	io.Closer
}

// App owns every connection opened at startup.
type App struct {
	handler http.Handler
	server  *std.Server
	closers []namedCloser
	logger  *slog.Logger
}

// New opens the stores, brokers and transports described by cfg.
// Whatever was opened is closed again when New fails.
func New(ctx context.Context, cfg Config) (_ *App, err error) {
	a := &App{logger: slog.Default().WithGroup("app")}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	renderer, err := render.New(cfg.Render)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init renderer")
	}

	transport := newMailTransport(cfg.Mail)
	if transport.Err != nil {
		a.logger.Warn("mail transport unavailable, batches will be rejected",
			slog.String("provider", string(cfg.Mail.Provider)),
			slog.String("reason", transport.Err.Error()),
		)
	} else {
		a.add("mail", transport.Sender)
	}
	dispatcher := dispatch.NewDispatcher(cfg.Dispatch, transport, renderer, nil)

	store, err := logstore.Open(ctx, cfg.LogStore)
	if err != nil {
		return nil, err
	}
	a.add("log store", store)

	publisher, err := events.New(ctx, cfg.Events)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init events")
	}
	writerOpts := &batchlog.WriterOptions{}
	if publisher != nil {
		a.add("events", publisher)
		writerOpts.Publisher = publisher
	}

	deps := api.Deps{
		Dispatcher: dispatcher,
		Writer:     batchlog.NewWriter(store, writerOpts),
		Reader:     batchlog.NewReader(store),
		SMS:        newSMSSender(cfg.SMS),
	}

	if cfg.Auth.Enabled {
		revoked, err := kv.New(ctx, cfg.KV)
		if err != nil {
			return nil, errors.Wrap(err, "failed to init kv store")
		}
		a.add("kv", revoked)

		deps.Auth, err = auth.New(cfg.Auth, revoked, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to init auth")
		}
	} else {
		a.logger.Warn("authentication is disabled, the API is open")
	}

	a.handler = middleware.Monitoring(middleware.Recovery(api.New(deps).Routes()))
	a.server = std.NewDefault(cfg.Server, a.handler)
	return a, nil
}

func (a *App) add(name string, c io.Closer) {
	a.closers = append(a.closers, namedCloser{name: name, Closer: c})
}

// Handler is the full middleware chain, for tests.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves on ln until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Serve(ln)
	})
	g.Go(func() error {
		<-ctx.Done()
		return a.server.Close()
	})

	return g.Wait()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.Close(); err != nil {
			a.logger.Error("failed to close", slog.String("resource", c.name), slog.String("error", err.Error()))
			if first == nil {
				first = errors.Wrapf(err, "failed to close %s", c.name)
			}
		}
	}
	a.closers = nil
	return first
}
