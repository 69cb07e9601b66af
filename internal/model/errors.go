package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the client error taxonomy.
// Use errors.Is() to check against these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("unavailable")
	ErrRejected     = errors.New("rejected")
	ErrInvariant    = errors.New("invariant violation")
)

// APIError represents a structured error surfaced to the UI layer.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewUnauthorizedError creates an error for a rejected or expired token.
// Callers must demote the session to local cart authority and not retry.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:    "UNAUTHORIZED",
		Message: reason,
		Err:     ErrUnauthorized,
	}
}

// NewUnavailableError creates an error for network or server-side failures.
// Eligible for re-fetch-based recovery, at most once per user action.
func NewUnavailableError(service string, err error) *APIError {
	return &APIError{
		Code:    "UNAVAILABLE",
		Message: fmt.Sprintf("%s request failed", service),
		Err:     fmt.Errorf("%w: %v", ErrUnavailable, err),
	}
}

// NewRejectedError creates an error for a business rule failure.
// The server-supplied message is surfaced verbatim and never retried.
func NewRejectedError(message string) *APIError {
	if message == "" {
		message = "request rejected"
	}
	return &APIError{
		Code:    "REJECTED",
		Message: message,
		Err:     ErrRejected,
	}
}

// NewInvariantError creates an error for a guard precondition violation,
// e.g. attempting to place an order below the minimum value. These must be
// prevented before the call; reaching one is a programming error.
func NewInvariantError(reason string) *APIError {
	return &APIError{
		Code:    "INVARIANT",
		Message: reason,
		Err:     ErrInvariant,
	}
}
