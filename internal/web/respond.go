// Package web holds the JSON response helpers shared by the HTTP handlers.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	WriteJSON(w, logger, status, errorResponse{Error: message})
}

// WriteServiceError maps domain errors to a status and message. Anything
// unrecognised is logged and reported as a generic 500.
func WriteServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		WriteJSON(w, logger, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
		return
	}

	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		WriteError(w, logger, status, "internal server error")
		return
	}
	WriteError(w, logger, status, err.Error())
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateEmail), errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON reads a JSON body, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
