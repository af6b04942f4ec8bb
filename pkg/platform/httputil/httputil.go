// Package httputil centralizes JSON envelopes and domain error translation
// for the HTTP transport, keeping handlers thin and responses consistent.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	derrors "civid/pkg/domain-errors"
)

// statusFor maps domain error codes onto HTTP status codes. Consistency
// failures surface as 500s: the caller must treat them as internal failures,
// never as partial success.
func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeValidation, derrors.CodeBadRequest, derrors.CodeInvalidInput:
		return http.StatusBadRequest
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeForbidden:
		return http.StatusForbidden
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeConflict, derrors.CodeInvariantViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders a coded domain error as a JSON envelope. Internal and
// consistency failures omit the description so operator detail never leaks
// to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	status := statusFor(code)

	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		var de *derrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode parses the request body into T. On failure it writes a bad_request
// envelope, logs the refusal, and reports ok=false so the handler can return.
func Decode[T any](w http.ResponseWriter, r *http.Request, log *slog.Logger) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if log != nil {
			log.ErrorContext(r.Context(), "request body decode failed", "error", err)
		}
		WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return req, false
	}
	return req, true
}
