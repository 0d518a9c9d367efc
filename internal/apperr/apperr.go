// Package apperr defines the error taxonomy shared by all services:
// not-found, structured validation failures, and optimistic-concurrency
// conflicts. Handlers translate these into HTTP status codes.
package apperr

import (
	"fmt"
	"strings"
)

// Stable machine-readable codes for violations callers branch on.
const (
	CodeDeletionCreatesGap = "DELETION_CREATES_GAP"
	CodeLastPhase          = "LAST_PHASE"
	CodeAllocationExceeded = "ALLOCATION_EXCEEDED"
)

// FieldError is a single violated constraint. PhaseID is set when the
// violation points at a specific phase in a timeline check; Code is set
// for violations clients are expected to branch on.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	PhaseID int    `json:"phase_id,omitempty"`
}

func (e FieldError) String() string {
	if e.PhaseID != 0 {
		return fmt.Sprintf("%s: %s (phase %d)", e.Field, e.Message, e.PhaseID)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError carries every violated constraint for a rejected write.
// Validation never short-circuits: callers get the full list.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.String()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NewValidation builds a ValidationError with a single entry.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// Validation wraps an accumulated error list. Returns nil when the list is
// empty so callers can return it directly.
func Validation(errs []FieldError) *ValidationError {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// NotFoundError marks a reference to a record that does not exist.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError for the given resource kind and id.
func NotFound(resource string, id int) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError is raised when an update carries a stale version. Current
// holds the persisted record so the caller can reconcile without a second
// round trip.
type ConflictError struct {
	Resource string
	ID       int
	Current  any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently", e.Resource, e.ID)
}

// Conflict builds a ConflictError carrying the current server-side state.
func Conflict(resource string, id int, current any) *ConflictError {
	return &ConflictError{Resource: resource, ID: id, Current: current}
}
