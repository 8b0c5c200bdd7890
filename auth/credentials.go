package auth

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials checks an operator login against the whitelist.
type Credentials struct {
	emails map[string]struct{}
	hash   []byte
}

// NewCredentials rejects a hash bcrypt cannot parse.
func NewCredentials(emails []string, passwordHash string) (*Credentials, error) {
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, errors.Wrap(err, "invalid password hash")
	}

	c := &Credentials{
		emails: make(map[string]struct{}, len(emails)),
		hash:   []byte(passwordHash),
	}
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			c.emails[e] = struct{}{}
		}
	}
	return c, nil
}

// Check returns ErrInvalidCredentials for an unknown email or a wrong password.
// The hash is compared in both cases so the response time does not reveal the whitelist.
func (c *Credentials) Check(email, password string) error {
	_, known := c.emails[normalizeEmail(email)]
	err := bcrypt.CompareHashAndPassword(c.hash, []byte(password))
	if !known || err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
