package tracing

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

type testProvider struct {
	*tracesdk.TracerProvider
	closed bool
}

func (p *testProvider) Close() error {
	p.closed = true
	return p.Shutdown(context.Background())
}

func restoreGlobals(t *testing.T) {
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestInit(t *testing.T) {
	restoreGlobals(t)

	want := &testProvider{TracerProvider: tracesdk.NewTracerProvider()}
	provider, err := Init(func() (Provider, error) { return want, nil })
	require.NoError(t, err)
	assert.Same(t, want, provider)

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid(), "global provider is the sdk one")
	span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	assert.NotEmpty(t, carrier.Get("traceparent"))

	require.NoError(t, provider.Close())
	assert.True(t, want.closed)
}

func TestInit_BuilderError(t *testing.T) {
	restoreGlobals(t)
	before := otel.GetTracerProvider()

	provider, err := Init(func() (Provider, error) { return nil, errors.New("no endpoint") })
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load tracing provider: no endpoint")
	assert.IsType(t, NoopProvider{}, provider)
	assert.Equal(t, before, otel.GetTracerProvider())

	_, span := provider.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, provider.Close())
}
