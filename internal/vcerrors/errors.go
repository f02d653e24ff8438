// Package vcerrors defines the error taxonomy of the checkpoint engine.
package vcerrors

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeWorkspaceNotFound  ErrorType = "WORKSPACE_NOT_FOUND"
	ErrorTypeBackendUnavailable ErrorType = "BACKEND_UNAVAILABLE"
	ErrorTypeOperationFailed    ErrorType = "OPERATION_FAILED"
	ErrorTypeUnsupported        ErrorType = "UNSUPPORTED"
)

type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on the taxonomy type so callers can use errors.Is with the
// sentinel values below.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Type == other.Type
}

var (
	ErrWorkspaceNotFound  = &Error{Type: ErrorTypeWorkspaceNotFound, Message: "workspace not found"}
	ErrBackendUnavailable = &Error{Type: ErrorTypeBackendUnavailable, Message: "backend unavailable"}
	ErrOperationFailed    = &Error{Type: ErrorTypeOperationFailed, Message: "operation failed"}
	ErrUnsupported        = &Error{Type: ErrorTypeUnsupported, Message: "operation unsupported"}
)

func WorkspaceNotFound(path string) *Error {
	return &Error{
		Type:    ErrorTypeWorkspaceNotFound,
		Message: fmt.Sprintf("workspace not found: %s", path),
	}
}

func BackendUnavailable(message string) *Error {
	return &Error{
		Type:    ErrorTypeBackendUnavailable,
		Message: message,
	}
}

// OperationFailed wraps the underlying version-control failure so the
// caller can distinguish a dirty workspace from, say, a full disk.
func OperationFailed(message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeOperationFailed,
		Message: message,
		Cause:   cause,
	}
}

func Unsupported(operation string) *Error {
	return &Error{
		Type:    ErrorTypeUnsupported,
		Message: fmt.Sprintf("operation not supported by this backend: %s", operation),
	}
}
