package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrPersistence      = errors.New("persistence failure")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalid          = errors.New("invalid input")
)

// NotFoundError reports a task or project id that does not resolve.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func TaskNotFound(id string) error    { return &NotFoundError{Kind: "task", ID: id} }
func ProjectNotFound(id string) error { return &NotFoundError{Kind: "project", ID: id} }

// CapacityError is returned when the plan does not allow another create.
type CapacityError struct {
	Resource Resource
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded: plan does not allow another %s this month", e.Resource)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }

// PersistenceError wraps a failed Entity Store call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// InvalidStatef builds an ErrInvalidState error.
func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
