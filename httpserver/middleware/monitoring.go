package middleware

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/bulkmail/logger"
)

var (
	meter = otel.GetMeterProvider().Meter("github.com/pure-golang/bulkmail/httpserver/middleware")
	// nolint:errcheck // Sync OpenTelemetry instruments never return errors
	requestsCount, _       = meter.Int64Counter("http.request_count")
	requestTimeHist, _     = meter.Int64Histogram("http.request_time", metric.WithUnit("ms"))
	requestBodyLenHist, _  = meter.Int64Histogram("http.request_body_len", metric.WithUnit("KB"))
	responseBodyLenHist, _ = meter.Int64Histogram("http.response_body_len", metric.WithUnit("KB"))
)

const tracerName = "github.com/pure-golang/bulkmail/httpserver/middleware"

// BodyMaxLen limits the bodies copied into span attributes.
const BodyMaxLen = 2048

// Credentials never reach span attributes.
var redactedHeaders = []string{"Authorization", "Cookie"}

// Monitoring traces incoming http requests using open telemetry tracer + attaches logger to request context
func Monitoring(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqTime := time.Now()
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		path := r.URL.Path
		ctx, span := otel.Tracer(tracerName).Start(ctx, r.Method+" "+path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		metricLabels := []attribute.KeyValue{
			attribute.String("http.method", r.Method),
			attribute.String("http.route", path),
		}

		traceID := span.SpanContext().TraceID().String()

		log := slog.Default().With(slog.String("method", r.Method), slog.String("path", path))
		if span.SpanContext().HasTraceID() {
			log = log.With("trace_id", traceID)
		}

		attrs := semconv.NetAttributesFromHTTPRequest("tcp", r)
		attrs = append(attrs, semconv.HTTPServerAttributesFromHTTPRequest("bulkmail", path, r)...)
		attrs = append(attrs, attribute.String("http.request.header.User-Agent", r.Header.Get("User-Agent")))
		for _, h := range redactedHeaders {
			if r.Header.Get(h) != "" {
				attrs = append(attrs, attribute.String("http.request.header."+h, "[redacted]"))
			}
		}

		// only the head of the body is buffered; the handler still reads the whole stream
		head, err := io.ReadAll(io.LimitReader(r.Body, BodyMaxLen+1))
		if err != nil {
			log.Error("failed to read body", "error", err)
		}
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
		attrs = append(attrs, attribute.String("http.request.body_2048", cut(head, r.ContentLength)))

		w.Header().Set("X-Trace-Id", traceID)

		ctx = logger.NewContext(ctx, log)
		srw := newStatefulRespWriter(w)

		next.ServeHTTP(srw, r.WithContext(ctx))

		if srw.status == 0 {
			srw.status = http.StatusOK
		}
		attrs = append(attrs, attribute.Int("http.response.status", srw.status))
		attrs = append(attrs, attribute.String("http.response.body_2048", cut(srw.head, int64(srw.size))))
		span.SetAttributes(attrs...)

		requestsCount.Add(ctx, 1, metric.WithAttributes(append(metricLabels,
			attribute.Int("http.response.code", srw.status))...))
		requestTimeHist.Record(ctx, time.Since(reqTime).Milliseconds(), metric.WithAttributes(metricLabels...))
		requestBodyLenHist.Record(ctx, max(r.ContentLength, 0)/1024, metric.WithAttributes(metricLabels...))
		responseBodyLenHist.Record(ctx, int64(srw.size)/1024, metric.WithAttributes(metricLabels...))

		log.Debug("request served",
			slog.Int("status", srw.status),
			slog.Duration("elapsed", time.Since(reqTime)),
		)

		if srw.status >= 500 {
			span.SetStatus(codes.Error, "")
			return
		}

		span.SetStatus(codes.Ok, "")
	})
}

// statefulRespWriter keeps the status, the size and the first BodyMaxLen bytes of the response
type statefulRespWriter struct {
	http.ResponseWriter
	status int
	size   int
	head   []byte
}

func newStatefulRespWriter(w http.ResponseWriter) *statefulRespWriter {
	return &statefulRespWriter{ResponseWriter: w}
}

func (w *statefulRespWriter) WriteHeader(status int) {
	if w.status != 0 {
		return
	}
	w.ResponseWriter.WriteHeader(status)
	w.status = status
}

func (w *statefulRespWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	if room := BodyMaxLen + 1 - len(w.head); room > 0 {
		w.head = append(w.head, b[:min(room, len(b))]...)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *statefulRespWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statefulRespWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// cut renders body for a span attribute; total is the full length when known.
func cut(body []byte, total int64) string {
	if len(body) <= BodyMaxLen {
		return string(body)
	}
	if total <= 0 {
		return fmt.Sprintf("%s...(truncated)", body[:BodyMaxLen])
	}
	return fmt.Sprintf("%s...(%d bytes)", body[:BodyMaxLen], total)
}
