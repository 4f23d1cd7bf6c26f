// Package apperr defines the error kinds surfaced to users of the attendance flows.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for presentation.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindStoreUnavailable    Kind = "store_unavailable"
	KindAuthFailed          Kind = "authentication_failed"
	KindIdentifierMismatch  Kind = "identifier_mismatch"
	KindDuplicateAttendance Kind = "duplicate_attendance"
	KindExport              Kind = "export_error"
	KindNotFound            Kind = "not_found"
	KindSessionEnded        Kind = "session_ended"
	KindUnauthorized        Kind = "unauthorized"
)

// Error carries a kind, a user-visible message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrDuplicate) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrStoreUnavailable   = &Error{Kind: KindStoreUnavailable}
	ErrAuthFailed         = &Error{Kind: KindAuthFailed}
	ErrIdentifierMismatch = &Error{Kind: KindIdentifierMismatch}
	ErrDuplicate          = &Error{Kind: KindDuplicateAttendance}
	ErrExport             = &Error{Kind: KindExport}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrSessionEnded       = &Error{Kind: KindSessionEnded}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
)

// Wrap attaches a kind and user-visible message to err.
func Wrap(kind Kind, msg string, err error) error { return &Error{Kind: kind, Message: msg, Err: err} }

func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// Store wraps a failed store call.
func Store(op string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Message: "An error occurred while " + op + ".", Err: err}
}

func AuthFailed(msg string) error { return &Error{Kind: KindAuthFailed, Message: msg} }

// IdentifierMismatch never says whether the identifier was malformed or unknown.
func IdentifierMismatch() error {
	return &Error{Kind: KindIdentifierMismatch, Message: "Authentication failed. Please check your unique identifier and try again."}
}

func Duplicate(studentName string) error {
	return &Error{Kind: KindDuplicateAttendance, Message: studentName + ", your attendance has already been taken."}
}

func Export(msg string, err error) error { return &Error{Kind: KindExport, Message: msg, Err: err} }

func NotFound(what string) error { return &Error{Kind: KindNotFound, Message: what + " not found"} }

func SessionEnded(courseName string) error {
	return &Error{Kind: KindSessionEnded, Message: courseName + " session is over"}
}

func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage is the text shown to the user for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred."
}
