package api

import (
	"log/slog"
	"net/http"

	"github.com/pure-golang/bulkmail/httpserver"
	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/sms"
)

type sendSMSRequest struct {
	To      string `json:"to"`
	Channel string `json:"channel"`
	Message string `json:"message"`
}

type sendSMSResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (h *Handler) sendSMS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sendSMSRequest
	if err := decode(w, r, &req); err != nil {
		httpserver.JSONError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.To == "" || req.Channel == "" || req.Message == "" {
		httpserver.JSONError(w, r, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.Channel != "sms" {
		httpserver.JSONError(w, r, http.StatusBadRequest, "Unsupported channel: "+req.Channel)
		return
	}
	if h.deps.SMS == nil {
		httpserver.JSONError(w, r, http.StatusServiceUnavailable, "SMS is not configured")
		return
	}

	msg := sms.Message{To: req.To, Text: req.Message}
	if err := msg.Validate(); err != nil {
		httpserver.JSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.deps.SMS.Send(ctx, msg)
	if err != nil {
		logger.FromContextWithErr(ctx, err).Error("sms send failed", slog.String("to", req.To))
		httpserver.JSONError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	var resp sendSMSResponse
	resp.Success = true
	resp.Data.ID = id
	httpserver.JSON(w, r, http.StatusOK, resp)
}
