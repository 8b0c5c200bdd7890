// Package metrics exposes the process metrics on a dedicated /metrics listener.
package metrics

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Enabled     bool          `envconfig:"METRICS_ENABLED" default:"true"`
	Host        string        `envconfig:"METRICS_HOST"`
	Port        int           `envconfig:"METRICS_PORT" default:"9090"`
	ReadTimeout time.Duration `envconfig:"METRICS_READ_TIMEOUT" default:"30s"`
}

type Metrics struct {
	config Config
	server *http.Server
	ln     net.Listener
}

// InitDefault installs the prometheus meter provider and starts serving.
func InitDefault(config Config) (*Metrics, error) {
	provider := New(config)
	if err := provider.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start metrics server")
	}

	return provider, nil
}

func New(config Config) *Metrics {
	return &Metrics{
		config: config,
		server: NewHttpServer(config),
	}
}

// Start binds the listener synchronously so that a busy port fails startup.
func (s *Metrics) Start() error {
	if err := InitPrometheus(); err != nil {
		return errors.Wrap(err, "failed to init prometheus")
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.server.Addr)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Default().Warn("metrics server failed", "error", err.Error())
		}
	}()

	return nil
}

// Addr is the bound address, known after Start.
func (s *Metrics) Addr() string {
	if s.ln == nil {
		return s.server.Addr
	}
	return s.ln.Addr().String()
}

func (s *Metrics) Close() error {
	return errors.Wrap(s.server.Close(), "failed to close metrics")
}

func NewHttpServer(conf Config) *http.Server {
	r := http.NewServeMux()
	r.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              net.JoinHostPort(conf.Host, strconv.Itoa(conf.Port)),
		Handler:           r,
		ReadTimeout:       conf.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
