package metrics

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewHttpServer(t *testing.T) {
	server := NewHttpServer(Config{Host: "127.0.0.1", Port: 9091, ReadTimeout: 15 * time.Second})
	assert.Equal(t, "127.0.0.1:9091", server.Addr)
	assert.Equal(t, 15*time.Second, server.ReadTimeout)

	ts := httptest.NewServer(server.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/other")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInitPrometheus_Idempotent(t *testing.T) {
	require.NoError(t, InitPrometheus())
	require.NoError(t, InitPrometheus())
	assert.NotNil(t, otel.GetMeterProvider())
}

func TestMetrics_ServesOtelAndPrometheusCollectors(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "bulkmail_metrics_test_total", Help: "test"})
	require.NoError(t, prometheus.Register(counter))
	t.Cleanup(func() { prometheus.Unregister(counter) })
	counter.Inc()

	m, err := InitDefault(Config{Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second})
	require.NoError(t, err)
	defer m.Close()

	otelCounter, err := otel.GetMeterProvider().Meter("metrics_test").Int64Counter("bulkmail.test.events")
	require.NoError(t, err)
	otelCounter.Add(t.Context(), 3)

	resp, err := http.Get("http://" + m.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "bulkmail_metrics_test_total 1")
	assert.Contains(t, string(body), "bulkmail_test_events")
}

func TestStart_BusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	m := New(Config{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port})
	assert.Error(t, m.Start())
}
