package httpclient

import (
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted is matched (errors.Is) by every error returned after the
// client gave up retrying.
var ErrRetriesExhausted = errors.New("retries exhausted")

// ClientError represents the categories of errors returned by the client.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	NetworkError    ErrorType = "network"
	TimeoutError    ErrorType = "timeout"
	ExhaustedError  ErrorType = "exhausted"
	ValidationError ErrorType = "validation"
)

type networkError struct {
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("network error: %s", e.message)
}

func (e *networkError) Type() ErrorType { return NetworkError }
func (e *networkError) Unwrap() error   { return e.wrapped }

type timeoutError struct {
	message string
	timeout time.Duration
	wrapped error
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType { return TimeoutError }
func (e *timeoutError) Unwrap() error   { return e.wrapped }

// exhaustedError is returned once every attempt failed at the connection level.
type exhaustedError struct {
	attempts int
	wrapped  error
}

func (e *exhaustedError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("request failed after %d attempts: %v", e.attempts, e.wrapped)
	}
	return fmt.Sprintf("request failed after %d attempts", e.attempts)
}

func (e *exhaustedError) Type() ErrorType { return ExhaustedError }

// Attempts reports how many attempts were made before giving up.
func (e *exhaustedError) Attempts() int { return e.attempts }

func (e *exhaustedError) Unwrap() []error {
	if e.wrapped == nil {
		return []error{ErrRetriesExhausted}
	}
	return []error{ErrRetriesExhausted, e.wrapped}
}

type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType { return ValidationError }

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{message: message, wrapped: wrapped}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration, wrapped error) ClientError {
	return &timeoutError{message: message, timeout: timeout, wrapped: wrapped}
}

// NewExhaustedError creates an error reporting that all attempts were used up.
// last may be nil when no underlying cause is known.
func NewExhaustedError(attempts int, last error) ClientError {
	return &exhaustedError{attempts: attempts, wrapped: last}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{message: message, field: field}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}
