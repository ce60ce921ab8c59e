package engineerr

import (
	"fmt"
	"strings"
)

// Category classifies engine errors by how the sweep should react to them.
type Category string

const (
	// Errors that should stop the engine
	CategoryFatal  Category = "FATAL"
	CategoryConfig Category = "CONFIG"

	// Errors scoped to one account for one tick
	CategoryBridge      Category = "BRIDGE"
	CategoryStore       Category = "STORE"
	CategoryImplausible Category = "IMPLAUSIBLE_DATA"
	CategoryInvariant   Category = "INVARIANT"

	// Transient errors, retried next tick
	CategoryNetwork   Category = "NETWORK"
	CategoryTimeout   Category = "TIMEOUT"
	CategoryRateLimit Category = "RATE_LIMIT"
	CategoryConflict  Category = "CONFLICT"
)

// EngineError is a categorized error with the component and operation that
// produced it.
type EngineError struct {
	Category   Category
	Component  string
	Operation  string
	Message    string
	Underlying error
	Retryable  bool
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsRetryable reports whether the next sweep tick may retry the operation.
func (e *EngineError) IsRetryable() bool {
	return e.Retryable
}

// IsFatal reports whether the engine process should stop.
func (e *EngineError) IsFatal() bool {
	return e.Category == CategoryFatal || e.Category == CategoryConfig
}

// New creates a categorized engine error.
func New(category Category, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Retryable: retryableCategory(category),
	}
}

// Wrap attaches engine context to an existing error. Returns nil for nil.
func Wrap(err error, category Category, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Retryable:  retryableCategory(category),
	}
}

// WithRetryable overrides the category default.
func (e *EngineError) WithRetryable(retryable bool) *EngineError {
	e.Retryable = retryable
	return e
}

func retryableCategory(category Category) bool {
	switch category {
	case CategoryNetwork, CategoryTimeout, CategoryRateLimit, CategoryConflict, CategoryBridge:
		return true
	case CategoryFatal, CategoryConfig, CategoryImplausible, CategoryInvariant:
		return false
	default:
		return true
	}
}

// Categorize classifies a generic error from the bridge or the store.
func Categorize(err error, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EngineError); ok {
		return ee
	}

	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "context deadline exceeded") {
		return Wrap(err, CategoryTimeout, component, operation)
	}
	if strings.Contains(msg, "connection") || strings.Contains(msg, "dial") ||
		strings.Contains(msg, "dns") || strings.Contains(msg, "eof") {
		return Wrap(err, CategoryNetwork, component, operation)
	}
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") {
		return Wrap(err, CategoryRateLimit, component, operation)
	}
	if strings.Contains(msg, "version conflict") || strings.Contains(msg, "database is locked") {
		return Wrap(err, CategoryConflict, component, operation)
	}
	if strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key") {
		return Wrap(err, CategoryConfig, component, operation)
	}

	return Wrap(err, CategoryBridge, component, operation)
}

// Common constructors used across the engine.

func NewConfigError(component, operation, message string) *EngineError {
	return New(CategoryConfig, component, operation, message).WithRetryable(false)
}

func NewInvariantError(component, operation, message string) *EngineError {
	return New(CategoryInvariant, component, operation, message).WithRetryable(false)
}

func NewImplausibleDataError(component, operation, message string) *EngineError {
	return New(CategoryImplausible, component, operation, message).WithRetryable(false)
}

func NewBridgeError(component, operation string, err error) *EngineError {
	return Wrap(err, CategoryBridge, component, operation)
}

func NewStoreError(component, operation string, err error) *EngineError {
	return Wrap(err, CategoryStore, component, operation)
}
