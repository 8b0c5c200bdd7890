package kafka

import (
	"context"
	"sort"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/queue/kafka")

// withTraceHeaders добавляет к заголовкам контекст трейса и отдаёт их в стабильном порядке
func withTraceHeaders(ctx context.Context, headers map[string]string) []kafka.Header {
	carrier := propagation.MapCarrier(headers)
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	keys := carrier.Keys()
	sort.Strings(keys)
	out := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, kafka.Header{Key: k, Value: []byte(headers[k])})
	}
	return out
}
