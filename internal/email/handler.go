// Package email is a mail sink: it validates and logs outgoing messages.
package email

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront/internal/validation"
	"github.com/joao-fontenele/storefront/internal/web"
)

type Handler struct {
	validator *validation.Validator
	logger    *slog.Logger
}

func NewHandler(validator *validation.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		validator: validator,
		logger:    logger,
	}
}

type sendRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)

	if err := h.validator.Struct(req); err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("email sent", "to", req.To, "subject", req.Subject, "body_bytes", len(req.Body))

	web.WriteJSON(w, h.logger, http.StatusOK, sendResponse{Status: "sent"})
}
