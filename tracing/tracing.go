// Package tracing installs the global otel tracer provider.
package tracing

import (
	"io"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Provider interface {
	trace.TracerProvider
	io.Closer
}

// ProviderBuilder wrap all realization details of constructor (ex. config struct)
type ProviderBuilder func() (Provider, error)

// Init installs the built provider and the W3C propagator. On failure the
// returned NoopProvider is still usable and the global state is left untouched.
func Init(creator ProviderBuilder) (Provider, error) {
	provider, err := creator()
	if err != nil {
		return NoopProvider{}, errors.Wrapf(err, "failed to load tracing provider")
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return provider, nil
}

// NoopProvider is used when tracing is disabled.
type NoopProvider struct{ noop.TracerProvider }

func (NoopProvider) Close() error { return nil }
