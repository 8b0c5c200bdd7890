package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/httpserver"
	"github.com/pure-golang/bulkmail/logger"
)

type contextKeyT string

var contextKey = contextKeyT("github.com/pure-golang/bulkmail/auth")

// FromContext returns the claims the Gate put into the request context.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey).(*Claims)
	return c, ok
}

// Gate lets through requests with a valid token. Browsers are redirected to the login page,
// API clients get 401.
func (s *Service) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, err := s.Authenticate(ctx, TokenFromRequest(r))
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				logger.FromContextWithErr(ctx, err).Error("authentication failed")
				httpserver.JSONError(w, r, http.StatusInternalServerError, "Authentication unavailable")
				return
			}
			if wantsHTML(r) {
				http.Redirect(w, r, s.cfg.RedirectPath, http.StatusSeeOther)
				return
			}
			httpserver.JSONError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx = context.WithValue(ctx, contextKey, claims)
		ctx = logger.With(ctx, "operator", claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
