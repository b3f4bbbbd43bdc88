// Package domain defines core types, interfaces, and errors for the access manager.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// MissingHandlerError indicates that no membership handler is registered for
// an object category. This is a configuration defect and is always surfaced
// to the caller rather than absorbed.
type MissingHandlerError struct {
	ObjectType string
}

func (e *MissingHandlerError) Error() string {
	return fmt.Sprintf("no membership handler registered for object type %q", e.ObjectType)
}

// CyclicHierarchyError indicates that a parent/child edge set contains a
// cycle. Hierarchies are required to be acyclic; cyclic input is rejected
// instead of risking non-termination during closure computation.
type CyclicHierarchyError struct {
	ObjectType string
	NodeIDs    []string
}

func (e *CyclicHierarchyError) Error() string {
	return fmt.Sprintf("cyclic %s hierarchy involving nodes %v", e.ObjectType, e.NodeIDs)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrMissingHandler creates a MissingHandlerError for the given object type.
func ErrMissingHandler(objectType string) *MissingHandlerError {
	return &MissingHandlerError{ObjectType: objectType}
}
