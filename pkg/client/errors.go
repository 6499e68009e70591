package client

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call so callers can decide how to react.
type Kind string

const (
	KindNetwork        Kind = "network"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindDuplicate      Kind = "duplicate_application"
	KindInvalidState   Kind = "invalid_state_transition"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindServer         Kind = "server"
	KindStale          Kind = "stale"
)

// Error is returned by every client call that fails.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind, so errors.Is(err, client.ErrNotFound) holds for any
// not-found failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNetwork                = &Error{Kind: KindNetwork, Message: "network error"}
	ErrAuthentication         = &Error{Kind: KindAuthentication, Message: "not signed in"}
	ErrAuthorization          = &Error{Kind: KindAuthorization, Message: "access denied"}
	ErrDuplicateApplication   = &Error{Kind: KindDuplicate, Message: "already applied"}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidState, Message: "invalid state transition"}
	ErrValidation             = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound               = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict               = &Error{Kind: KindConflict, Message: "conflict"}
	ErrServer                 = &Error{Kind: KindServer, Message: "server error"}
	// ErrStale is returned by Latest when a newer call superseded this one.
	ErrStale = &Error{Kind: KindStale, Message: "superseded by a newer request"}
)

func newError(kind Kind, status int, code, message string, err error) *Error {
	return &Error{Kind: kind, Status: status, Code: code, Message: message, Err: err}
}

func validationError(message string) *Error {
	return newError(KindValidation, 0, "VALIDATION_ERROR", message, nil)
}

// IsRetryable reports whether repeating the call may succeed. Only transport
// failures qualify; everything else needs a corrective action first.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}
