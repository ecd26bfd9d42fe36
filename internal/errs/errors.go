package errs

import (
	"errors"
	"fmt"
)

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound   = errors.New("not_found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation_error")
	// ErrUnbalanced is a validation failure: posting requires total debit == total credit.
	ErrUnbalanced = errors.New("unbalanced_entry")
	// ErrInvalidTransition rejects a status change outside draft→posted, draft→voided, posted→voided.
	ErrInvalidTransition = errors.New("invalid_transition")
	// ErrAccountInUse is returned when deleting an account still referenced by journal items
	// and reference protection is enabled.
	ErrAccountInUse = errors.New("account_in_use")
	// ErrPersistence wraps any failure of the backing store.
	ErrPersistence = errors.New("persistence_error")
)

// ValidationError describes which precondition of an operation failed.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// NotFoundError reports an unknown id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(resource, id string) error { return &NotFoundError{Resource: resource, ID: id} }

// UnbalancedEntryError is returned when an entry is posted with unequal totals.
// Amounts are in minor units.
type UnbalancedEntryError struct {
	TotalDebit  int64
	TotalCredit int64
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("sum(debits) must equal sum(credits): debit=%d credit=%d", e.TotalDebit, e.TotalCredit)
}

func (e *UnbalancedEntryError) Is(target error) bool {
	return target == ErrUnbalanced || target == ErrValidation
}

// PersistenceError wraps a store failure. It is propagated, never retried here.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "persistence: " + e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Persistence wraps err as a PersistenceError unless it is nil or already a
// not-found, conflict or persistence error.
func Persistence(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
