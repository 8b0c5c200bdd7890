package api

import (
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/dispatch"
	"github.com/pure-golang/bulkmail/httpserver"
	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/render"
)

type sendEmailRequest struct {
	Subject    string               `json:"subject"`
	Body       string               `json:"body"`
	Format     render.Format        `json:"format"`
	Recipients []dispatch.Recipient `json:"recipients"`
}

type sendEmailResponse struct {
	Success bool               `json:"success"`
	BatchID string             `json:"batchId"`
	Sent    int                `json:"sent"`
	Failed  int                `json:"failed"`
	Logged  bool               `json:"logged"`
	Logs    []dispatch.Outcome `json:"logs"`
}

func (h *Handler) sendEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sendEmailRequest
	if err := decode(w, r, &req); err != nil {
		httpserver.JSONError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Format == "" {
		req.Format = render.FormatHTML
	}

	res, err := h.deps.Dispatcher.Dispatch(ctx, dispatch.Batch{
		Subject:    req.Subject,
		Body:       req.Body,
		Format:     req.Format,
		Recipients: req.Recipients,
	})
	if err != nil {
		var validationErr *dispatch.ValidationError
		if errors.As(err, &validationErr) {
			httpserver.JSONError(w, r, http.StatusBadRequest, validationErr.Message)
			return
		}
		logger.FromContextWithErr(ctx, err).Error("bulk email failed")
		httpserver.JSONError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	// The emails are already out: a failed log write is reported, not turned into an error.
	log, err := h.deps.Writer.Write(ctx, req.Subject, res)
	logged := err == nil
	if err != nil {
		logger.FromContextWithErr(ctx, err).Error("failed to record batch log",
			slog.String("batch_id", log.ID),
			slog.Int("sent", res.Sent),
			slog.Int("failed", res.Failed),
		)
	}

	httpserver.JSON(w, r, http.StatusOK, sendEmailResponse{
		Success: true,
		BatchID: log.ID,
		Sent:    res.Sent,
		Failed:  res.Failed,
		Logged:  logged,
		Logs:    nonNil(res.Outcomes),
	})
}

type logsResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Logs    any    `json:"logs"`
}

// emailLogs returns batches newest first; ?view=rows returns one row per recipient.
func (h *Handler) emailLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		logs any
		err  error
	)
	switch view := r.URL.Query().Get("view"); view {
	case "", "batches":
		logs, err = h.deps.Reader.Batches(ctx)
	case "rows":
		logs, err = h.deps.Reader.Rows(ctx)
	default:
		httpserver.JSONError(w, r, http.StatusBadRequest, "Unknown view: "+view)
		return
	}

	if err != nil {
		logger.FromContextWithErr(ctx, err).Error("fetch email logs failed")
		httpserver.JSON(w, r, http.StatusInternalServerError, logsResponse{
			Error: "Unable to fetch logs",
			Logs:  []any{},
		})
		return
	}

	httpserver.JSON(w, r, http.StatusOK, logsResponse{Success: true, Logs: logs})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
