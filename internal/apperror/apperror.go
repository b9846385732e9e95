// Package apperror defines the error kinds returned by the domain services.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error so transports can pick a response code.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindDuplicate
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindMismatch
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindMismatch:
		return "mismatch"
	default:
		return "unexpected"
	}
}

// Error is a classified domain error. Code is a stable machine-readable name,
// Message is safe to show to API clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Code so that predeclared errors work with errors.Is
// even after being wrapped with extra context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }

func Duplicate(code, message string) *Error { return New(KindDuplicate, code, message) }

func NotFound(code, message string) *Error { return New(KindNotFound, code, message) }

func Forbidden(code, message string) *Error { return New(KindForbidden, code, message) }

func Unauthenticated(code, message string) *Error { return New(KindUnauthenticated, code, message) }

func Mismatch(code, message string) *Error { return New(KindMismatch, code, message) }

// Unexpected wraps a collaborator failure. The cause is kept for logs only.
func Unexpected(op string, err error) *Error {
	return &Error{Kind: KindUnexpected, Code: "unexpected", Message: op, Err: err}
}

// KindOf reports the kind of err, or KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// As extracts the *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
