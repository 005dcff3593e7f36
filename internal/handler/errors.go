package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/charter-broker/internal/domain"
)

// ErrorDetail is the body of every non-2xx response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail under an "error" key.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// respondErr maps a service error onto the HTTP status table:
// not found 404, validation 422, state conflicts 409, storage 503.
// Anything else is logged and reported as an opaque 500.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var te *domain.TransitionError
	switch {
	case errors.Is(err, domain.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "not_found", "charter request not found")
	case errors.Is(err, domain.ErrQuoteNotFound):
		writeError(w, http.StatusNotFound, "not_found", "quote not found")
	case errors.Is(err, domain.ErrOperatorNotFound):
		writeError(w, http.StatusNotFound, "not_found", "operator not found")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.As(err, &te):
		writeError(w, http.StatusConflict, "invalid_transition", te.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", domain.ErrInvalidTransition.Error())
	case errors.Is(err, domain.ErrDuplicateQuote):
		writeError(w, http.StatusConflict, "duplicate_quote", "operator has already quoted on this request")
	case errors.Is(err, domain.ErrStorageUnavailable):
		s.log.ErrorContext(r.Context(), "storage unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage temporarily unavailable")
	default:
		s.log.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// badBody reports a request body that could not be decoded.
func badBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		return
	}
	writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body: "+err.Error())
}

// badParam reports a path or query parameter that failed to bind.
func badParam(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "service.RequestService.CreateDraft: validation error: passenger_count must be at least 1"
// → "passenger_count must be at least 1"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 && len(msg) > i+len(marker) {
		return msg[i+len(marker):]
	}
	return msg
}
