// Package apperr defines the error kinds shift operations return to callers.
package apperr

import (
	"errors"
	"fmt"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrSchedulingConflict = errors.New("scheduling conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidation         = errors.New("validation error")
	ErrUniqueViolation    = errors.New("unique violation")
	ErrStore              = errors.New("store error")
)

// InvalidTransitionError names the shift state and the event that was refused
type InvalidTransitionError struct {
	ShiftID string
	Current model.ShiftStatus
	Event   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s shift %s in state %s", e.Event, e.ShiftID, e.Current)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// SchedulingConflictError names the existing shift a candidate interval collides with
type SchedulingConflictError struct {
	StaffID            string
	ConflictingShiftID string
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict: staff %s is already booked on shift %s", e.StaffID, e.ConflictingShiftID)
}

func (e *SchedulingConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}

// NotFound returns an ErrNotFound naming the missing entity
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// Unauthorized returns an ErrUnauthorized naming the denied action
func Unauthorized(actorID, action string) error {
	return fmt.Errorf("%w: %s may not %s", ErrUnauthorized, actorID, action)
}

// Validation returns an ErrValidation with a formatted reason
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Store wraps an opaque upstream failure
func Store(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStore, op, err)
}

// Kind classifies an error into one of the kinds above.
type Kind string

const (
	KindNone               Kind = ""
	KindNotFound           Kind = "NotFound"
	KindInvalidTransition  Kind = "InvalidTransition"
	KindSchedulingConflict Kind = "SchedulingConflict"
	KindUnauthorized       Kind = "Unauthorized"
	KindValidation         Kind = "ValidationError"
	KindUniqueViolation    Kind = "UniqueViolation"
	KindStore              Kind = "StoreError"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrSchedulingConflict, KindSchedulingConflict},
	{ErrUnauthorized, KindUnauthorized},
	{ErrValidation, KindValidation},
	{ErrUniqueViolation, KindUniqueViolation},
	{ErrStore, KindStore},
}

// KindOf returns the kind of err. Unclassified errors are reported as KindStore.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindStore
}
