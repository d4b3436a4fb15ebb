package model

import "fmt"

// ValidationError is returned when an input fails field validation. The
// request is rejected before any mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError is returned for an unknown model, experiment or alert id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// StateConflictError is returned when an operation is not valid for the
// entity's current state, e.g. starting an experiment that is not in draft.
type StateConflictError struct {
	Kind      string
	ID        string
	Current   string
	Requested string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s %s is %s, cannot %s", e.Kind, e.ID, e.Current, e.Requested)
}

func NewStateConflictError(kind, id, current, requested string) *StateConflictError {
	return &StateConflictError{Kind: kind, ID: id, Current: current, Requested: requested}
}

// PartialComputationError marks a single journey whose weighting failed.
// Report generation absorbs it: the journey is dropped from the report and
// counted in ErrorCount instead of failing the whole report.
type PartialComputationError struct {
	CustomerID string
	ModelID    string
	Err        error
}

func (e *PartialComputationError) Error() string {
	return fmt.Sprintf("weighting failed for customer %s with model %s: %v", e.CustomerID, e.ModelID, e.Err)
}

func (e *PartialComputationError) Unwrap() error {
	return e.Err
}
