package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// handleServiceError maps service errors to appropriate HTTP status codes.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "service error", "error", err)

	var cfgErr *service.ConfigError
	if errors.As(err, &cfgErr) {
		writeError(w, http.StatusBadRequest, cfgErr.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, "Invalid configuration")
	case errors.Is(err, service.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrIndexNotFound):
		writeError(w, http.StatusConflict, "No index available. Ingest documents first.")
	case errors.Is(err, service.ErrIncompatibleIndexVersion):
		writeError(w, http.StatusConflict, "Stored index is incompatible. Re-ingest documents.")
	case errors.Is(err, service.ErrUpstreamGeneration):
		writeError(w, http.StatusBadGateway, "Language model request failed")
	default:
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
