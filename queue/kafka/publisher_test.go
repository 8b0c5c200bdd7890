package kafka

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/pure-golang/bulkmail/queue"
)

type fakeWriter struct {
	mx       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mx.Lock()
	defer w.mx.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestPublisher(t *testing.T) (*Publisher, *fakeWriter) {
	t.Helper()
	dialer, err := NewDialer(Config{Brokers: []string{"localhost:9092"}, TopicPrefix: "bulkmail."}, nil)
	require.NoError(t, err)

	pub := NewPublisher(dialer, PublisherConfig{})
	w := &fakeWriter{}
	pub.writer = w
	return pub, w
}

func TestNewDialer_NoBrokers(t *testing.T) {
	_, err := NewDialer(Config{}, nil)
	assert.Error(t, err)
}

func TestPublisher_Publish(t *testing.T) {
	pub, w := newTestPublisher(t)

	err := pub.Publish(context.Background(), queue.Message{
		Topic:   "batchlog.appended",
		Key:     "b1",
		Headers: map[string]string{"batch-id": "b1"},
		Body:    map[string]int{"sent": 1},
	})
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "bulkmail.batchlog.appended", msg.Topic)
	assert.Equal(t, []byte("b1"), msg.Key)
	assert.JSONEq(t, `{"sent":1}`, string(msg.Value))
	assert.Contains(t, msg.Headers, kafka.Header{Key: "batch-id", Value: []byte("b1")})
	assert.Contains(t, msg.Headers, kafka.Header{Key: "content-type", Value: []byte("application/json")})
}

func TestPublisher_GeneratesKey(t *testing.T) {
	pub, w := newTestPublisher(t)

	require.NoError(t, pub.Publish(context.Background(), queue.Message{Topic: "t", Body: "x"}))
	require.Len(t, w.messages, 1)
	assert.Len(t, w.messages[0].Key, 36)
}

func TestPublisher_EmptyTopic(t *testing.T) {
	pub, w := newTestPublisher(t)

	err := pub.Publish(context.Background(), queue.Message{Body: "x"})
	assert.Error(t, err)
	assert.Empty(t, w.messages)
}

func TestPublisher_WriteError(t *testing.T) {
	pub, w := newTestPublisher(t)
	w.err = errors.New("leader not available")

	err := pub.Publish(context.Background(), queue.Message{Topic: "t"})
	assert.ErrorContains(t, err, "leader not available")
}

func TestPublisher_Closed(t *testing.T) {
	pub, w := newTestPublisher(t)
	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())
	assert.True(t, w.closed)

	err := pub.Publish(context.Background(), queue.Message{Topic: "t"})
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestPublisher_DialerClosed(t *testing.T) {
	pub, _ := newTestPublisher(t)
	require.NoError(t, pub.dialer.Close())

	err := pub.Publish(context.Background(), queue.Message{Topic: "t"})
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestWithTraceHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator()) })

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	headers := withTraceHeaders(ctx, map[string]string{"x-source": "bulkmail", "content-type": "application/json"})

	keys := make([]string, 0, len(headers))
	for _, h := range headers {
		keys = append(keys, h.Key)
	}
	assert.Equal(t, []string{"content-type", "traceparent", "x-source"}, keys)
}
