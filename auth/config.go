package auth

import (
	"time"

	"github.com/pkg/errors"
)

// Config задаёт вход операторов и параметры сессионного токена
type Config struct {
	Enabled bool   `envconfig:"AUTH_ENABLED" default:"true"`
	Secret  string `envconfig:"JWT_SECRET"`
	// Emails операторов, которым разрешён вход
	Emails []string `envconfig:"WHITELISTED_EMAILS"`
	// PasswordHash общий bcrypt-хеш пароля операторов
	PasswordHash string        `envconfig:"WHITELISTED_PASSWORD_HASH"`
	TokenTTL     time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"1h"`
	RedirectPath string        `envconfig:"AUTH_REDIRECT_PATH" default:"/"`
	CookieSecure bool          `envconfig:"AUTH_COOKIE_SECURE" default:"true"`
	// RevokedPrefix is the kv key prefix of logged out token ids.
	RevokedPrefix string `envconfig:"AUTH_REVOKED_PREFIX" default:"bulkmail:revoked:"`
}

// Validate is called only when auth is enabled.
func (c Config) Validate() error {
	switch {
	case len(c.Secret) < 32:
		return errors.New("JWT_SECRET must be at least 32 bytes")
	case len(c.Emails) == 0:
		return errors.New("WHITELISTED_EMAILS is empty")
	case c.PasswordHash == "":
		return errors.New("WHITELISTED_PASSWORD_HASH is empty")
	case c.TokenTTL <= 0:
		return errors.New("AUTH_TOKEN_TTL must be positive")
	}
	return nil
}
