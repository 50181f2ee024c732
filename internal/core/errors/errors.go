// Package errors defines the error types shared by wabbit plugins and the host.
package errors

import (
	"errors"
	"fmt"
)

// DomainError represents errors in the domain logic
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Common domain errors
var (
	ErrInvalidArgument = &DomainError{
		Code:    "INVALID_ARGUMENT",
		Message: "invalid argument",
	}

	ErrAlreadyRegistered = &DomainError{
		Code:    "ALREADY_REGISTERED",
		Message: "name is already registered",
	}

	ErrNotRegistered = &DomainError{
		Code:    "NOT_REGISTERED",
		Message: "name is not registered",
	}

	ErrAccountExists = &DomainError{
		Code:    "ACCOUNT_EXISTS",
		Message: "account already exists",
	}

	ErrRegistryFull = &DomainError{
		Code:    "REGISTRY_FULL",
		Message: "registration limit reached",
	}

	ErrPluginClosed = &DomainError{
		Code:    "PLUGIN_CLOSED",
		Message: "plugin is not running",
	}

	ErrMissingConfiguration = &DomainError{
		Code:    "MISSING_CONFIGURATION",
		Message: "required configuration is missing",
	}
)

// NewDomainError creates a new domain error with context
func NewDomainError(base *DomainError, err error) error {
	return &DomainError{
		Code:    base.Code,
		Message: base.Message,
		Err:     err,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Is reports every validation failure as an invalid argument.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}
