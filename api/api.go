// Package api exposes the dispatch service over HTTP JSON.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/auth"
	"github.com/pure-golang/bulkmail/batchlog"
	"github.com/pure-golang/bulkmail/dispatch"
	"github.com/pure-golang/bulkmail/httpserver"
	"github.com/pure-golang/bulkmail/sms"
)

// MaxBodyBytes limits request bodies; 50 recipients and an HTML body fit easily.
const MaxBodyBytes = 1 << 20

type Dispatcher interface {
	Dispatch(ctx context.Context, b dispatch.Batch) (dispatch.Result, error)
}

type LogWriter interface {
	Write(ctx context.Context, subject string, res dispatch.Result) (batchlog.BatchLog, error)
}

type LogReader interface {
	Batches(ctx context.Context) ([]batchlog.BatchLog, error)
	Rows(ctx context.Context) ([]batchlog.Row, error)
}

// Deps are the services behind the handlers. Auth nil disables login and the gate;
// SMS nil answers the SMS endpoint with 503.
type Deps struct {
	Dispatcher Dispatcher
	Writer     LogWriter
	Reader     LogReader
	SMS        sms.Sender
	Auth       *auth.Service
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Routes returns the mux with every endpoint registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	protect := func(next http.HandlerFunc) http.Handler {
		if h.deps.Auth == nil {
			return next
		}
		return h.deps.Auth.Gate(next)
	}

	mux.Handle("POST /api/send-email", protect(h.sendEmail))
	mux.Handle("GET /api/email-logs", protect(h.emailLogs))
	mux.Handle("POST /api/send-sms", protect(h.sendSMS))
	if h.deps.Auth != nil {
		mux.HandleFunc("POST /api/login", h.login)
		mux.HandleFunc("POST /api/logout", h.logout)
	}
	mux.HandleFunc("GET /healthz", h.healthz)

	return mux
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	httpserver.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v, rejecting unknown trailing data.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}
