package api

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/auth"
	"github.com/pure-golang/bulkmail/httpserver"
	"github.com/pure-golang/bulkmail/logger"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		httpserver.JSONError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpserver.JSONError(w, r, http.StatusBadRequest, "Missing fields")
		return
	}

	token, claims, err := h.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httpserver.JSONError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logger.FromContextWithErr(r.Context(), err).Error("login failed")
		httpserver.JSONError(w, r, http.StatusInternalServerError, "Login failed")
		return
	}

	h.deps.Auth.SetCookie(w, token, claims.ExpiresAt.Time)
	httpserver.JSON(w, r, http.StatusOK, sessionResponse{Success: true})
}

// logout always clears the cookie; a failed revocation is only logged.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Auth.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		logger.FromContextWithErr(r.Context(), err).Warn("failed to revoke session token")
	}

	h.deps.Auth.ClearCookie(w)
	httpserver.JSON(w, r, http.StatusOK, sessionResponse{Success: true, Message: "Logged out successfully"})
}
