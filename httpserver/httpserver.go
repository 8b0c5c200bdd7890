package httpserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pure-golang/bulkmail/logger"
)

type Provider interface {
	Start() error
	io.Closer
}

type Runner interface {
	Run()
}

type RunableProvider interface {
	Provider
	Runner
}

// JSON writes v with the given status. Encoding errors are only logged: the header is already sent.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContextWithErr(r.Context(), err).Error("failed to write response")
	}
}

// Error is the failure body shared by all JSON endpoints.
type Error struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// JSONError writes {"success":false,"error":msg}.
func JSONError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, r, status, Error{Error: msg})
}
