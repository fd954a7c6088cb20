package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/brick-commander/internal/brick"
	"github.com/nerrad567/brick-commander/internal/controller"
	"github.com/nerrad567/brick-commander/internal/session"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeNotConnected = "not_connected"
	ErrCodeTransport    = "transport_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDriverError maps a controller error to its HTTP status.
func writeDriverError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, brick.ErrInvalidRecord),
		errors.Is(err, brick.ErrInvalidDirection),
		errors.Is(err, brick.ErrUnknownTransition):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, brick.ErrDeviceNotFound),
		errors.Is(err, controller.ErrNoSelection):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, brick.ErrDuplicateName),
		errors.Is(err, brick.ErrIllegalTransition):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, session.ErrNotConnected):
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotConnected, err.Error())
	case errors.Is(err, session.ErrTransport):
		writeError(w, http.StatusBadGateway, ErrCodeTransport, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
