// Package jaeger exports spans over OTLP/HTTP to a Jaeger collector.
package jaeger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/pure-golang/bulkmail/tracing"
)

var _ tracing.Provider = (*Provider)(nil)

// Config. An empty EndPoint disables tracing.
type Config struct {
	EndPoint     string        `envconfig:"TRACING_ENDPOINT"`
	ServiceName  string        `envconfig:"SERVICE_NAME" default:"bulkmail"`
	AppVersion   string        `envconfig:"APP_VERSION" default:"dev"`
	SampleRatio  float64       `envconfig:"TRACING_SAMPLE_RATIO" default:"1"`
	CloseTimeout time.Duration `envconfig:"TRACING_CLOSE_TIMEOUT" default:"5s"`
}

// Provider extends tracesdk.TraceProvider based on the OTLP exporter
type Provider struct {
	*tracesdk.TracerProvider
	closeTimeout time.Duration
}

// Close flushes pending spans and shuts the exporter down.
func (j *Provider) Close() error {
	ctx := context.Background()
	if j.closeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.closeTimeout)
		defer cancel()
	}

	if err := j.ForceFlush(ctx); err != nil {
		// Ensure shutdown is called even if ForceFlush fails
		if shutdownErr := j.Shutdown(ctx); shutdownErr != nil {
			return errors.Wrap(err, "jaeger force flush failed (also shutdown failed)")
		}
		return errors.Wrap(err, "jaeger force flush failed")
	}

	return errors.Wrap(j.Shutdown(ctx), "shutdown jaeger")
}

func NewProviderBuilder(conf Config) tracing.ProviderBuilder {
	return func() (tracing.Provider, error) {
		if conf.EndPoint == "" {
			return nil, errors.New("empty connection string")
		}
		if conf.ServiceName == "" {
			return nil, errors.New("service name is empty")
		}

		exp, err := otlptrace.New(
			context.Background(),
			otlptracehttp.NewClient(
				otlptracehttp.WithEndpointURL(conf.EndPoint),
			),
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create jaeger instance")
		}

		tp := tracesdk.NewTracerProvider(
			tracesdk.WithBatcher(exp),
			tracesdk.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceNameKey.String(conf.ServiceName),
				semconv.ServiceVersionKey.String(conf.AppVersion),
			)),
			tracesdk.WithSampler(sampler(conf.SampleRatio)),
		)

		return &Provider{TracerProvider: tp, closeTimeout: conf.CloseTimeout}, nil
	}
}

// sampler keeps the caller's decision and samples new traces by ratio.
func sampler(ratio float64) tracesdk.Sampler {
	switch {
	case ratio >= 1:
		return tracesdk.ParentBased(tracesdk.AlwaysSample())
	case ratio <= 0:
		return tracesdk.ParentBased(tracesdk.NeverSample())
	default:
		return tracesdk.ParentBased(tracesdk.TraceIDRatioBased(ratio))
	}
}
