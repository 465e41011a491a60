package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

const (
	codeUnauthenticated = "UNAUTHENTICATED"
	codeRateLimited     = "RATE_LIMITED"
	codeBadRequest      = "VALIDATION_ERROR"
	codeInternal        = "INTERNAL"
)

var kindStatus = []struct {
	kind   error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
	{domain.ErrDuplicateAction, http.StatusConflict, "DUPLICATE_ACTION"},
	{domain.ErrOutOfWindow, http.StatusUnprocessableEntity, "OUT_OF_WINDOW"},
	{domain.ErrOutOfRange, http.StatusUnprocessableEntity, "OUT_OF_RANGE"},
	{domain.ErrValidation, http.StatusBadRequest, codeBadRequest},
}

// writeError maps a service error to its status and body. Errors outside
// the domain taxonomy are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			var de *domain.Error
			msg := err.Error()
			if errors.As(err, &de) && de.Message != "" {
				msg = de.Message
			}
			writeJSON(w, ks.status, errorBody{Error: errorDetail{Code: ks.code, Reason: domain.ReasonOf(err), Message: msg}})
			return
		}
	}
	logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{Code: codeInternal, Message: "internal server error"}})
}

func writeStatus(w http.ResponseWriter, status int, code, reason, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Reason: reason, Message: msg}})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeStatus(w, http.StatusBadRequest, codeBadRequest, domain.ReasonInvalidInput, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}
