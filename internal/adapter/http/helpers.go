package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ruedaya/storefront/internal/domain"
	"github.com/ruedaya/storefront/internal/logger"
)

// maxBodyBytes bounds API request bodies; an OAuth profile is well under it.
const maxBodyBytes = 64 << 10

// readJSON decodes the request body into a T, answering 400 or 413 itself
// when it cannot.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(&v)
	if err == nil {
		return v, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
	} else {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
	}
	return v, false
}

// writeJSON sends data as JSON. API answers carry session material, so
// nothing is cacheable by intermediaries.
func writeJSON(w http.ResponseWriter, status int, data any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write json response", "error", err)
	}
}

type apiError struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError sends {"error": message} tagged with the request id.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, apiError{Error: message, RequestID: logger.RequestID(r.Context())})
}

// writeDomainError maps domain sentinels to statuses; notFoundMsg is the
// client message for domain.ErrNotFound.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, r, http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": "))
	case errors.Is(err, domain.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
	case errors.Is(err, domain.ErrBackendUnavailable):
		slog.WarnContext(r.Context(), "backend unavailable", "error", err)
		writeError(w, r, http.StatusBadGateway, "backend unavailable")
	default:
		writeInternalError(w, r, err)
	}
}

// writeInternalError logs err and hides it from the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", "error", err)
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}
