package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keyfold/keyfold/internal/common"
)

// APIError represents a structured API error response.
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{Code: code, Message: message})
}

// writeDomainError maps a domain error onto a transport response. Every
// branch keeps the error's own message discipline: conflict errors are safe
// to spell out, credential and recovery failures stay undifferentiated, and
// anything unrecognized becomes a generic 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrExistingEmail):
		writeError(w, http.StatusBadRequest, "EXISTING_EMAIL", "Email already registered")
	case errors.Is(err, common.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, "USERNAME_TAKEN", "Username already taken")
	case errors.Is(err, common.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, common.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "INVALID_CODE", "Invalid reset code")
	case errors.Is(err, common.ErrTokenInvalid), errors.Is(err, common.ErrSubjectMissing):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Could not verify credentials")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}
