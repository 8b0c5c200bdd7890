// Package auth restricts the API to whitelisted operators holding a session token.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/kv"
	"github.com/pure-golang/bulkmail/logger"
)

// Service logs operators in and out and authenticates requests.
type Service struct {
	cfg         Config
	credentials *Credentials
	tokens      *Tokens
	revoked     kv.Store
	now         func() time.Time
}

// Options allow to override the clock in tests.
type Options struct {
	Now func() time.Time
}

// New validates cfg. revoked may be nil: logout then only clears the cookie.
func New(cfg Config, revoked kv.Store, options *Options) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if options == nil {
		options = &Options{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	credentials, err := NewCredentials(cfg.Emails, cfg.PasswordHash)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:         cfg,
		credentials: credentials,
		tokens:      NewTokens(cfg.Secret, cfg.TokenTTL, options.Now),
		revoked:     revoked,
		now:         options.Now,
	}, nil
}

// Login returns a signed token for a whitelisted operator.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Claims, error) {
	if err := s.credentials.Check(email, password); err != nil {
		logger.FromContext(ctx).Warn("login rejected", slog.String("email", email))
		return "", nil, err
	}

	token, claims, err := s.tokens.Issue(normalizeEmail(email))
	if err != nil {
		return "", nil, err
	}
	logger.FromContext(ctx).Info("operator logged in", slog.String("email", claims.Email))
	return token, claims, nil
}

// Authenticate verifies the token and checks it was not logged out.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if s.revoked == nil || claims.ID == "" {
		return claims, nil
	}

	revoked, err := s.revoked.Exists(ctx, s.cfg.RevokedPrefix+claims.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check token revocation")
	}
	if revoked {
		return nil, errors.Wrap(ErrInvalidToken, "token was revoked")
	}
	return claims, nil
}

// Logout revokes a valid token until its expiry. Invalid tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.revoked == nil || token == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil || claims.ID == "" {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, s.cfg.RevokedPrefix+claims.ID, claims.Email, ttl); err != nil {
		return errors.Wrap(err, "failed to revoke token")
	}
	logger.FromContext(ctx).Info("operator logged out", slog.String("email", claims.Email))
	return nil
}
