package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrDependency   = errors.New("dependency failure")
	ErrUnauthorized = errors.New("unauthorized")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found or is not owned by the caller.
	// Ownership mismatches are reported with this type too.
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates a missing or invalid identity
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// ConflictError represents a structural invariant violation
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // folder or item
	ResourceID   string // ID of the conflicting resource, if any
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// DependencyError wraps a failure of the blob store or persistence transport
type DependencyError struct {
	Dependency string // "blob", "database", "transport"
	Err        error
}

func (e *DependencyError) Error() string {
	if e.Err == nil {
		return e.Dependency + " unavailable"
	}
	return e.Dependency + ": " + e.Err.Error()
}

func (e *DependencyError) Unwrap() error { return e.Err }

func (e *DependencyError) StatusCode() int { return http.StatusBadGateway }

func (e *DependencyError) Is(target error) bool {
	return target == ErrDependency
}

// NewNotFound builds a NotFoundError for a resource kind and id
func NewNotFound(kind, id string) error {
	return &NotFoundError{Message: kind + " " + id + " not found"}
}

// NewValidation builds a ValidationError
func NewValidation(msg string) error {
	return &ValidationError{Message: msg}
}
