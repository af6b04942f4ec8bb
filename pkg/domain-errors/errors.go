// Package derrors defines coded domain errors shared across services.
//
// Services return these so transport layers can map failures to consistent
// HTTP responses without string matching. Infrastructure layers return
// pkg/platform/sentinel errors instead; services translate at the boundary.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// CodeValidation covers malformed input the caller can correct locally
	// (bad date, missing template field, invalid quality score).
	CodeValidation Code = "validation_error"

	// CodeBadRequest covers structurally broken requests (unparseable body,
	// missing identifiers).
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput covers trust-boundary parse failures (IDs, enums).
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound covers references to nonexistent centers, requests,
	// ledger days, appointments or credentials.
	CodeNotFound Code = "not_found"

	// CodeConflict covers rejected operations: illegal state transitions,
	// exhausted slot capacity, duplicate active requests or credentials.
	// Never retried automatically by the core.
	CodeConflict Code = "conflict"

	// CodeInvariantViolation covers attempts to construct aggregates that
	// would break a model invariant.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeConsistency marks a multi-step effect that was partially applied
	// and could not be fully compensated. Operators must be alerted; the
	// caller sees a failed operation, never partial success.
	CodeConsistency Code = "consistency_failure"

	// CodeUnauthorized and CodeForbidden cover missing and insufficient
	// actor privileges respectively.
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"

	// CodeInternal is the catch-all for unexpected infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. It wraps an optional cause so errors.Is and
// errors.As keep working through the chain.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err yields
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is delegates to errors.Is; kept so call sites can stay on one import.
func Is(err, target error) bool { return errors.Is(err, target) }

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
