package overlap

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
)

// ShiftLister is the slice of the shift store the validator reads
type ShiftLister interface {
	ListShiftsForStaff(ctx context.Context, staffID string, statuses []model.ShiftStatus) ([]model.Shift, error)
}

// Intersects reports whether [s1,e1) and [s2,e2) share any instant.
// Intervals that only touch at a boundary do not intersect.
func Intersects(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// ValidateInterval checks the shape of a candidate interval. When notBefore
// is non-zero, start must not be earlier than it.
func ValidateInterval(start, end, notBefore time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("start and end time are required")
	}
	if !end.After(start) {
		return apperr.Validation("end time %s must be after start time %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if !notBefore.IsZero() && start.Before(notBefore) {
		return apperr.Validation("start time %s cannot be in the past", start.Format(time.RFC3339))
	}
	return nil
}

// FindConflict returns the first of staffID's assigned or in-progress shifts
// intersecting [start,end), skipping excludeShiftID. It returns nil when there
// is none.
func FindConflict(ctx context.Context, store ShiftLister, staffID string, start, end time.Time, excludeShiftID string) (*model.Shift, error) {
	shifts, err := store.ListShiftsForStaff(ctx, staffID, model.ActiveStatuses)
	if err != nil {
		return nil, apperr.Store(fmt.Sprintf("list shifts for staff %s", staffID), err)
	}
	for i := range shifts {
		s := &shifts[i]
		if excludeShiftID != "" && s.ID == excludeShiftID {
			continue
		}
		// Guard against stores that ignore the status filter.
		if s.Status != model.StatusAssigned && s.Status != model.StatusInProgress {
			continue
		}
		if Intersects(start, end, s.StartTime, s.EndTime) {
			return s, nil
		}
	}
	return nil, nil
}

// HasConflict reports whether [start,end) collides with one of staffID's
// active shifts other than excludeShiftID.
func HasConflict(ctx context.Context, store ShiftLister, staffID string, start, end time.Time, excludeShiftID string) (bool, error) {
	s, err := FindConflict(ctx, store, staffID, start, end, excludeShiftID)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

// Require fails with a SchedulingConflictError naming the colliding shift
func Require(ctx context.Context, store ShiftLister, staffID string, start, end time.Time, excludeShiftID string) error {
	s, err := FindConflict(ctx, store, staffID, start, end, excludeShiftID)
	if err != nil {
		return err
	}
	if s != nil {
		return &apperr.SchedulingConflictError{StaffID: staffID, ConflictingShiftID: s.ID}
	}
	return nil
}
