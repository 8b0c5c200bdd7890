package smtp

import (
	"time"

	"github.com/pkg/errors"
)

// Config contains SMTP connection parameters.
// Defaults target Gmail with an app password.
type Config struct {
	Host     string        `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	Port     int           `envconfig:"SMTP_PORT" default:"587"`       // 587 for STARTTLS
	Username string        `envconfig:"SMTP_USER"`                     // account or email
	Password string        `envconfig:"SMTP_PASSWORD"`                 // password or app password
	From     string        `envconfig:"SMTP_FROM"`                     // defaults to Username
	FromName string        `envconfig:"SMTP_FROM_NAME"`                // display name of From
	TLS      bool          `envconfig:"SMTP_TLS" default:"true"`       // require STARTTLS
	Insecure bool          `envconfig:"SMTP_INSECURE" default:"false"` // skip certificate verification
	Timeout  time.Duration `envconfig:"SMTP_TIMEOUT" default:"30s"`    // whole session deadline
}

// Validate reports configuration that makes the transport unusable.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("smtp host is empty")
	}
	if c.Port <= 0 {
		return errors.Errorf("invalid smtp port %d", c.Port)
	}
	if c.Username == "" || c.Password == "" {
		return errors.New("smtp credentials are not set")
	}
	if c.sender() == "" {
		return errors.New("no from address configured")
	}
	return nil
}

func (c Config) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}
