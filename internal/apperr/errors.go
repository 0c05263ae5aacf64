// Package apperr defines the closed set of failures the API can report.
// Every error that crosses a service boundary is either an *Error of one of
// the kinds below or is treated as KindInternal.
package apperr

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateEmail
	KindInvalidCredentials
	KindUnauthorized
	KindNotFound
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

var (
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Message: "Email already registered"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid credentials"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Message: "Invalid or expired token"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "Not found"}
	ErrInternal           = &Error{Kind: KindInternal, Message: "Server error"}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality, so errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: joinFieldMessages(fields), Fields: fields}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Unauthorized(message string, cause error) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Err: cause}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, Err: err}
}

// From returns err as an *Error, classifying unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func KindOf(err error) Kind {
	return From(err).Kind
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindDuplicateEmail:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal_error"
	default:
		return "internal_error"
	}
}

func joinFieldMessages(fields map[string]string) string {
	if len(fields) == 0 {
		return "Validation failed"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, fields[k])
	}
	return strings.Join(messages, ", ")
}
