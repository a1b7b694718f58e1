// Package types holds error types shared across rpcbench packages.
package types

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeConfig       ErrorType = "CONFIG_ERROR"
	ErrTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrTypeInvalidValue ErrorType = "INVALID_VALUE"
	ErrTypeDatabase     ErrorType = "DATABASE_ERROR"
	ErrTypeNetwork      ErrorType = "NETWORK_ERROR"
)

// StandardError provides consistent error formatting
type StandardError struct {
	Type    ErrorType
	Message string
	Details map[string]any
	Cause   error
}

func (e *StandardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

func NewConfigError(msg string, cause error) error {
	return &StandardError{
		Type:    ErrTypeConfig,
		Message: msg,
		Cause:   cause,
	}
}

func NewValidationError(field, msg string) error {
	return &StandardError{
		Type:    ErrTypeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

func NewInvalidValueError(field, value, msg string) error {
	return &StandardError{
		Type:    ErrTypeInvalidValue,
		Message: fmt.Sprintf("invalid value for %s: %s (%s)", field, value, msg),
		Details: map[string]any{"field": field, "value": value},
	}
}

func NewDatabaseError(operation string, cause error) error {
	return &StandardError{
		Type:    ErrTypeDatabase,
		Message: fmt.Sprintf("database %s failed", operation),
		Cause:   cause,
	}
}

// NewNetworkError reports a transport failure against url. The endpoint
// name is kept in Details so callers can group failures without parsing.
func NewNetworkError(endpoint, url string, cause error) error {
	return &StandardError{
		Type:    ErrTypeNetwork,
		Message: fmt.Sprintf("request to %s (%s) failed", endpoint, url),
		Details: map[string]any{"endpoint": endpoint, "url": url},
		Cause:   cause,
	}
}

// IsType reports whether err wraps a StandardError of type t.
func IsType(err error, t ErrorType) bool {
	var se *StandardError
	return errors.As(err, &se) && se.Type == t
}
