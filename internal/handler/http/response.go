package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"linkpro-analytics/internal/domain"
)

// Response helpers for consistent API responses

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent, nothing useful left to write
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error: message,
	})
}

// respondServiceError maps the domain error taxonomy to a status code
//   - domain.ErrNotFound     -> 404
//   - domain.ErrInvalidInput -> 400
//   - anything else          -> 500 with the underlying message
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", "operation", op, "error", err)
		respondError(w, http.StatusInternalServerError, "Error "+op+": "+err.Error())
	}
}
