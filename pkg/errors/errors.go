package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on Code so that clones of a predefined error still satisfy
// errors.Is against the original.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Error codes shared with API consumers.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeDuplicate       = "DUPLICATE_APPLICATION"
	CodeInvalidState    = "INVALID_STATE_TRANSITION"
	CodeInternal        = "INTERNAL_ERROR"
	CodeCacheMiss       = "CACHE_MISS"
	CodeFeatureDisabled = "FEATURE_DISABLED"
)

// Predefined errors for common scenarios.
var (
	ErrNotFound               = New(CodeNotFound, http.StatusNotFound, "resource not found")
	ErrForbidden              = New(CodeForbidden, http.StatusForbidden, "access denied")
	ErrUnauthorized           = New(CodeUnauthorized, http.StatusUnauthorized, "unauthorized")
	ErrConflict               = New(CodeConflict, http.StatusConflict, "conflict")
	ErrValidation             = New(CodeValidation, http.StatusBadRequest, "validation failed")
	ErrDuplicateApplication   = New(CodeDuplicate, http.StatusConflict, "you have already applied for this job")
	ErrInvalidStateTransition = New(CodeInvalidState, http.StatusBadRequest, "invalid status transition")
	ErrInternal               = New(CodeInternal, http.StatusInternalServerError, "internal server error")
	ErrFeatureDisabled        = New(CodeFeatureDisabled, http.StatusNotFound, "feature disabled")
	ErrCacheMiss              = New(CodeCacheMiss, http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Transition builds an InvalidStateTransition error naming both states.
func Transition(entity string, from, to fmt.Stringer) *Error {
	return Clone(ErrInvalidStateTransition, fmt.Sprintf("%s cannot move from %s to %s", entity, from, to))
}

// Internal wraps an unexpected failure with a caller-facing message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
