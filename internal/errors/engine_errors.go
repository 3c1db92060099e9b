package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCategory represents the boundary an error came from
type ErrorCategory string

const (
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryData          ErrorCategory = "DATA"
	ErrorCategoryProvider      ErrorCategory = "PROVIDER"
	ErrorCategoryStorage       ErrorCategory = "STORAGE"
	ErrorCategoryValidation    ErrorCategory = "VALIDATION"
)

// EngineError represents a categorized error with context
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] %s", e.Category, e.Component, e.Operation)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsRetryable reports whether retrying the operation may succeed. Provider
// and storage failures are usually transient; bad input is not.
func (e *EngineError) IsRetryable() bool {
	return isRetryableCategory(e.Category)
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewEngineError creates a new categorized error
func NewEngineError(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with engine error context
func WrapError(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryProvider, ErrorCategoryStorage:
		return true
	default:
		return false
	}
}

// IsCategory reports whether err is or wraps an EngineError of category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EngineError
	return stderrors.As(err, &ee) && ee.Category == category
}

// IsRetryable reports whether err is or wraps a retryable EngineError.
func IsRetryable(err error) bool {
	var ee *EngineError
	return stderrors.As(err, &ee) && ee.IsRetryable()
}

// Common error constructors
func NewConfigurationError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryConfiguration, component, operation, message)
}

func NewValidationError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryValidation, component, operation, message)
}

func NewDataError(component, operation string, err error) *EngineError {
	return WrapError(err, ErrorCategoryData, component, operation)
}

func NewProviderError(component, operation string, err error) *EngineError {
	return WrapError(err, ErrorCategoryProvider, component, operation)
}

func NewStorageError(component, operation string, err error) *EngineError {
	return WrapError(err, ErrorCategoryStorage, component, operation)
}
