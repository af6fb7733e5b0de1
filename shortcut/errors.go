package shortcut

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid  = errors.New("invalid shortcut")
	ErrNotFound = errors.New("shortcut not found")
	ErrCapacity = errors.New("toolbar is full")
)

type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// CapacityError is the ValidationError returned when the toolbar has no free slot.
func CapacityError(limit int) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf("at most %d shortcuts", limit), Err: ErrCapacity}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		if e.Err != nil {
			return fmt.Sprintf("%v: %s", e.Err, e.Reason)
		}
		return "invalid shortcut: " + e.Reason
	}
	return fmt.Sprintf("invalid shortcut %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid || (e.Err != nil && target == e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("shortcut %q not found", e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
