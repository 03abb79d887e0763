package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPurchaseOrderClosed = errors.New("purchase order is closed for billing")
	ErrPeriodLocked        = errors.New("accounting period is locked")
	ErrOutsideGeofence     = errors.New("location is outside the job site geofence")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrAlreadyClockedIn    = errors.New("personnel already has an open time entry")
	ErrInvalidInput        = errors.New("invalid input")
)

// InputError is a value rejected by a service before anything is written.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalidf(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	Kind DocumentKind
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// PeriodLockedError carries the gate message for a record dated inside a
// locked accounting period.
type PeriodLockedError struct {
	Message string
}

func (e *PeriodLockedError) Error() string { return e.Message }

func (e *PeriodLockedError) Unwrap() error { return ErrPeriodLocked }

// notFound wraps ErrNotFound with the entity and key that was looked up.
func notFound(entity string, key any) error {
	return fmt.Errorf("%s %v: %w", entity, key, ErrNotFound)
}
