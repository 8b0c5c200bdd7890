package std

import (
	"context"
	stdErr "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/httpserver"
)

const ShutdownTimeout = 15 * time.Second

var _ httpserver.RunableProvider = (*Server)(nil)

type Config struct {
	Host        string        `envconfig:"WEBSERVER_HOST"`
	Port        int           `envconfig:"WEBSERVER_PORT" default:"3000"`
	TLSCertPath string        `envconfig:"WEBSERVER_TLS_CERT_PATH"`
	TLSKeyPath  string        `envconfig:"WEBSERVER_TLS_KEY_PATH"`
	ReadTimeout time.Duration `envconfig:"WEBSERVER_READ_TIMEOUT" default:"30s"`
	// a 50-recipient batch is answered only after every attempt settles
	WriteTimeout time.Duration `envconfig:"WEBSERVER_WRITE_TIMEOUT" default:"2m"`
	IdleTimeout  time.Duration `envconfig:"WEBSERVER_IDLE_TIMEOUT" default:"120s"`
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

type Server struct {
	logger *slog.Logger
	server *http.Server
	config Config
}

func NewDefault(c Config, h http.Handler) *Server {
	s := New(c, h)

	s.server.ErrorLog = slog.NewLogLogger(s.logger.Handler(), slog.LevelError)

	return s
}

func New(c Config, h http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              c.Addr(),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
			ReadTimeout:       c.ReadTimeout,
			WriteTimeout:      c.WriteTimeout,
			IdleTimeout:       c.IdleTimeout,
		},
		logger: slog.Default().WithGroup("webserver"),
		config: c,
	}
}

// Start blocks until the server is closed.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.server.Addr)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln; tests pass a listener on a random port.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	s.logger.Info("server starting", slog.String("addr", ln.Addr().String()), slog.Bool("tls", s.config.TLSCertPath != ""))

	if s.config.TLSCertPath == "" {
		err = s.server.Serve(ln)
	} else {
		err = s.server.ServeTLS(ln, s.config.TLSCertPath, s.config.TLSKeyPath)
	}

	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return errors.Wrapf(err, "serve failed")
}

// Shutdown waits for in-flight requests (a running batch included) until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if err != nil {
		err = stdErr.Join(err, errors.Wrapf(s.server.Close(), "failed to close server"))
	}

	s.logger.Info("server closed")

	return errors.Wrapf(err, "server shutdown failed")
}

func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

func (s *Server) Run() {
	go func() {
		err := s.Start()
		if err != nil {
			s.logger.With("error", err).Error("webserver crashed")
		}
	}()
}
