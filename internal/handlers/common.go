package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"docubuddy/internal/contextutil"
	"docubuddy/internal/memory"
	"docubuddy/internal/service"
)

// defaultUserID identifies the implicit caller. Authentication is out of
// scope; a real deployment would derive this from the request.
const defaultUserID = "default-user"

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(r.Context())
	logger.ErrorContext(r.Context(), "service error", "error", err)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, memory.ErrInvalidRole),
		errors.Is(err, memory.ErrInvalidContent):
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, memory.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found")
	default:
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
