package pgx

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

// Config is optional at load time: it is only validated when the postgres log store is selected.
type Config struct {
	User            string `envconfig:"POSTGRES_USER"`
	Password        string `envconfig:"POSTGRES_PASSWORD"`
	Host            string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port            int    `envconfig:"POSTGRES_PORT" default:"5432"`
	Name            string `envconfig:"POSTGRES_DB_NAME" default:"bulkmail"`
	CertPath        string `envconfig:"POSTGRES_SSL_CERT_PATH"`
	MaxOpenConns    int32  `envconfig:"POSTGRES_MAX_OPEN_CONNECTIONS" default:"10"`
	MaxConnLifeTime int32  `envconfig:"POSTGRES_MAX_CONNECTIONS_LIFETIME" default:"300"` // seconds
	MaxConnIdleTime int32  `envconfig:"POSTGRES_MAX_CONNECTIONS_IDLE_TIME" default:"60"` // seconds
	// TraceLogLevel values: trace, debug, info, warn, error, none.
	TraceLogLevel string `envconfig:"POSTGRES_TRACE_LOG_LEVEL" default:"error"`
}

// Validate reports missing connection parameters.
func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return errors.New("postgres host is empty")
	case c.User == "":
		return errors.New("postgres user is empty")
	case c.Name == "":
		return errors.New("postgres database name is empty")
	}
	return nil
}

// URL returns database config in URL presentation
func (c Config) URL() *url.URL {
	q := url.Values{"timezone": []string{"utc"}}
	if c.CertPath != "" {
		q.Set("sslmode", "verify-full")
		q.Set("sslrootcert", c.CertPath)
	} else {
		q.Set("sslmode", "disable")
	}

	host := c.Host
	if c.Port != 0 && c.Port != 5432 {
		host = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}

	return &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     host,
		Path:     c.Name,
		RawQuery: q.Encode(),
	}
}
