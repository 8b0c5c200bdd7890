package metrics

import (
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

var (
	initOnce sync.Once
	initErr  error
)

// InitPrometheus sets the global otel meter provider backed by the default prometheus registry.
// The exporter can be registered only once per process, later calls return the first result.
func InitPrometheus() error {
	initOnce.Do(func() {
		exporter, err := prometheus.New()
		if err != nil {
			initErr = errors.Wrap(err, "failed to create prometheus instance")
			return
		}
		otel.SetMeterProvider(metric.NewMeterProvider(metric.WithReader(exporter)))

		initErr = errors.Wrap(runtime.Start(), "failed to start runtime")
	})
	return initErr
}
