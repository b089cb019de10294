// Package errors defines structured error codes for the routing pipeline.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type for routing operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeInvalidConfig indicates a malformed catalog or mapping configuration.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInvalidPattern indicates a regular expression that failed to compile.
	ErrCodeInvalidPattern ErrorCode = "INVALID_PATTERN"
	// ErrCodeIntentNotFound indicates the requested intent does not exist.
	ErrCodeIntentNotFound ErrorCode = "INTENT_NOT_FOUND"
	// ErrCodePersistFailed indicates the configuration could not be written back.
	ErrCodePersistFailed ErrorCode = "PERSIST_FAILED"
	// ErrCodeSessionUnavailable indicates the session store rejected an operation.
	ErrCodeSessionUnavailable ErrorCode = "SESSION_UNAVAILABLE"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeInternal indicates an unexpected failure inside the router.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// RouterError represents a structured error for routing operations.
type RouterError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *RouterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RouterError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *RouterError) WithContext(key string, value any) *RouterError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *RouterError {
	return &RouterError{Code: ErrCodeInvalidArgument, Message: msg}
}

// InvalidConfig creates an invalid configuration error.
func InvalidConfig(msg string, cause error) *RouterError {
	return &RouterError{Code: ErrCodeInvalidConfig, Message: msg, Cause: cause}
}

// InvalidPattern creates an error for a regex that does not compile.
func InvalidPattern(intent, pattern string, cause error) *RouterError {
	return &RouterError{
		Code:    ErrCodeInvalidPattern,
		Message: fmt.Sprintf("intent %s: invalid pattern %q", intent, pattern),
		Cause:   cause,
	}
}

// IntentNotFound creates an intent not found error.
func IntentNotFound(intent string) *RouterError {
	return &RouterError{
		Code:    ErrCodeIntentNotFound,
		Message: fmt.Sprintf("intent not found: %s", intent),
	}
}

// PersistFailed creates a persistence failure error.
func PersistFailed(path string, cause error) *RouterError {
	return &RouterError{
		Code:    ErrCodePersistFailed,
		Message: fmt.Sprintf("failed to persist configuration to %s", path),
		Cause:   cause,
	}
}

// SessionUnavailable creates a session store error.
func SessionUnavailable(userID string, cause error) *RouterError {
	return &RouterError{
		Code:    ErrCodeSessionUnavailable,
		Message: fmt.Sprintf("session store unavailable for user %s", userID),
		Cause:   cause,
	}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *RouterError {
	return &RouterError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *RouterError {
	return &RouterError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *RouterError {
	return &RouterError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error, or any error it wraps, carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var rErr *RouterError
	if errors.As(err, &rErr) {
		return rErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a RouterError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var rErr *RouterError
	if errors.As(err, &rErr) {
		return rErr.Code
	}
	return defaultCode
}
