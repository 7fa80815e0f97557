// Package domainerrors provides coded errors shared by all domain services.
//
// Services attach a Code when translating store sentinels or rejecting input;
// the HTTP layer maps codes to status lines and stable error strings so the
// client can discriminate "fix your input" from "you're not allowed" from
// "try again later" without parsing messages.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error. Codes are part of the API contract: their
// string form is returned in the JSON error envelope.
type Code string

const (
	// CodeValidation marks missing or malformed business input. The caller
	// must fix the request; no state was changed.
	CodeValidation Code = "validation_error"
	// CodeBadRequest marks transport-level problems (unreadable body,
	// wrong content type).
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput marks a malformed identifier or parameter.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a reference to an entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or concurrent-update conflict.
	CodeConflict Code = "conflict"
	// CodeForbidden marks a role, ownership, or terminal-state violation.
	// Retrying with the same actor will not succeed.
	CodeForbidden Code = "forbidden"
	// CodeUnauthorized marks a missing or invalid identity assertion.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidState marks an operation that is legal in general but not
	// for the entity's current lifecycle state.
	CodeInvalidState Code = "invalid_state"
	// CodeUnavailable marks an external collaborator failure (blob store,
	// mail relay). The caller may retry later.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks an unexpected failure. Details are logged, never
	// returned to the client.
	CodeInternal Code = "internal_error"
	// CodeInvariantViolation marks a broken aggregate invariant detected by
	// a model constructor or transition guard.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error carries a code, a caller-safe message, and an optional cause.
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

// Is makes errors.Is treat two coded errors with the same code as equal, so
// tests and callers can compare against a freshly constructed sentinel.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

// New creates a coded error with a caller-safe message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted caller-safe message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause is
// preserved for errors.Is / errors.As chains and log output.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	for e := err; e != nil; e = errors.Unwrap(e) {
		if errors.As(e, &de) && de.Code == code {
			return true
		}
	}
	return false
}

// HasCode is an alias of Is kept for call-site readability when the code is
// the subject of the sentence.
func HasCode(err error, code Code) bool {
	return Is(err, code)
}

// GetCode extracts the outermost code from err, defaulting to CodeInternal
// for uncoded errors.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Message extracts the caller-safe message from err, or an empty string for
// uncoded errors.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code to its HTTP status line.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidState:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
