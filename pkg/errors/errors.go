package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies an application error
type ErrorCode int

const (
	ErrValidation ErrorCode = iota + 1000
	ErrNotFound
	ErrAccessDenied
	ErrSystem
)

// SystemKind narrows ErrSystem for callers that render different
// retry guidance
type SystemKind string

const (
	KindStoreUnavailable SystemKind = "store_unavailable"
	KindCipherFailure    SystemKind = "cipher_failure"
	KindUnknown          SystemKind = "unknown"
)

// AppError is the only error type that crosses a service boundary.
// Raw storage/driver errors stay wrapped inside Err and are never
// rendered to the client.
type AppError struct {
	Code     ErrorCode  `json:"code"`
	Messages []string   `json:"messages,omitempty"`
	Kind     SystemKind `json:"-"`
	Err      error      `json:"-"`
}

func (e *AppError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation builds a caller-correctable error from one or more user
// messages. Messages are surfaced verbatim.
func Validation(messages ...string) *AppError {
	return &AppError{Code: ErrValidation, Messages: messages}
}

func NotFound(resource string) *AppError {
	return &AppError{Code: ErrNotFound, Messages: []string{fmt.Sprintf("%s not found", resource)}}
}

func AccessDenied() *AppError {
	return &AppError{Code: ErrAccessDenied, Messages: []string{"access denied"}}
}

// System wraps an unexpected failure. The caller sees only a generic
// message; err carries the detail for server-side logs.
func System(kind SystemKind, err error) *AppError {
	return &AppError{
		Code:     ErrSystem,
		Messages: []string{"something went wrong, please try again later"},
		Kind:     kind,
		Err:      err,
	}
}

func StoreUnavailable(err error) *AppError {
	return System(KindStoreUnavailable, err)
}

// IsValidation reports whether err is a caller-correctable validation
// failure.
func IsValidation(err error) bool {
	return isCode(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return isCode(err, ErrNotFound)
}

func IsAccessDenied(err error) bool {
	return isCode(err, ErrAccessDenied)
}

func IsSystem(err error) bool {
	return isCode(err, ErrSystem)
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// UserMessages extracts the messages safe to show the client. Unknown
// error types collapse to a generic failure.
func UserMessages(err error) []string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Messages
	}
	return []string{"something went wrong, please try again later"}
}
