package planner

import (
	"errors"
	"fmt"

	"github.com/jacentio/tripdb/internal/keys"
)

// ErrNotFound is returned when the requested trip, task, expense, user or
// trip membership list does not exist.
var ErrNotFound = errors.New("planner: not found")

// ValidationError reports caller input that was rejected before any write.
// Reason is safe to show to callers; Err holds the underlying cause, if any.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("planner: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StoreError wraps a failed store call made by operation Op.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("planner: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// FailedDelete is one record a cascade could not delete.
type FailedDelete struct {
	Key keys.Key
	Err error
}

// CascadeError reports a trip delete that removed some records but not all.
type CascadeError struct {
	TripID  string
	Deleted []keys.Key
	Failed  []FailedDelete
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("planner: delete trip %s: %d of %d records failed",
		e.TripID, len(e.Failed), len(e.Failed)+len(e.Deleted))
}

// Unwrap exposes the individual delete failures to errors.Is/As.
func (e *CascadeError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// validateID rejects empty ids and ids already carrying their kind prefix.
func validateID(field string, kind keys.Kind, id string) error {
	err := keys.ValidateID(kind, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keys.ErrEmptyID):
		return &ValidationError{Field: field, Reason: "must not be empty", Err: err}
	case errors.Is(err, keys.ErrPrefixedID):
		return &ValidationError{Field: field, Reason: "must not start with " + string(kind), Err: err}
	}
	return &ValidationError{Field: field, Reason: "is malformed", Err: err}
}
