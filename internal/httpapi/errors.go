package httpapi

import (
	"errors"
	"net/http"

	"github.com/tinoosan/bizledger/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusBadRequest, msg, "bad_request")
}

func unprocessable(w http.ResponseWriter, msg, code string) {
	validationFailures.WithLabelValues(code).Inc()
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// statusFor maps domain errors to an HTTP status and error code.
// Unbalanced is checked before validation because it matches both.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrUnbalanced):
		return http.StatusUnprocessableEntity, "unbalanced_entry"
	case errors.Is(err, errs.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, "invalid_transition"
	case errors.Is(err, errs.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrAccountInUse):
		return http.StatusConflict, "account_in_use"
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, errs.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// fail writes err using statusFor. Server-side failures are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	switch {
	case status == http.StatusUnprocessableEntity:
		unprocessable(w, err.Error(), code)
		return
	case status >= http.StatusInternalServerError:
		s.log.Error("request failed", "path", r.URL.Path, "code", code, "err", err)
	}
	writeErr(w, status, err.Error(), code)
}
