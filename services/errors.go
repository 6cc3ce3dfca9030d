package services

import (
	"errors"
	"fmt"

	"wellness-rewards-system/store"
)

// Failure kinds returned by the progress engine. Match with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrAlreadyCompleted       = errors.New("already completed")
	ErrConstraintViolation    = errors.New("constraint violation")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrInvalidInput           = errors.New("invalid input")
)

// ProgressError carries the operation that failed and its kind.
type ProgressError struct {
	Op   string
	Kind error
	Err  error
}

func (e *ProgressError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *ProgressError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind, err error) error {
	return &ProgressError{Op: op, Kind: kind, Err: err}
}

func invalid(op, format string, args ...interface{}) error {
	return newError(op, ErrInvalidInput, fmt.Errorf(format, args...))
}

// fromStore classifies a gateway error.
func fromStore(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(op, ErrNotFound, err)
	case errors.Is(err, store.ErrConstraintViolation):
		return newError(op, ErrConstraintViolation, err)
	}
	return newError(op, ErrPersistenceUnavailable, err)
}

// Retriable reports whether the caller may safely retry the operation.
func Retriable(err error) bool {
	return errors.Is(err, ErrPersistenceUnavailable)
}
