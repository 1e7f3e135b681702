package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies expected, caller-recoverable failures. Anything that
// is not an *Error is an internal failure.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindState         ErrorKind = "state"
)

type Error struct {
	Kind    ErrorKind
	Message string
	// Fields maps input field names to problems, for validation errors.
	Fields map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func ValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func FieldError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: map[string]string{field: msg}}
}

func AuthorizationError(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func NotFoundError(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func ConflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func StateError(format string, args ...any) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" for internal errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// fieldErrors accumulates validation problems across several fields.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	msg := "invalid input"
	if len(f) == 1 {
		for _, m := range f {
			msg = m
		}
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: f}
}
