// Package shiftstate owns the shift status lifecycle.
//
// Transitions are pure: Transition inspects a shift snapshot and returns the
// update to write plus the status the write must be guarded on. Callers
// commit the update with a compare-and-swap against that status, so a
// concurrent transition that got there first turns into a stale write.
package shiftstate

import (
	"time"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
)

// Event is something that happens to a shift
type Event string

const (
	EventAssign     Event = "assign"
	EventStart      Event = "start"
	EventComplete   Event = "complete"
	EventCancel     Event = "cancel"
	EventReschedule Event = "reschedule"
)

// sources lists the statuses each event may fire from
var sources = map[Event][]model.ShiftStatus{
	EventAssign:     {model.StatusOpen},
	EventStart:      {model.StatusAssigned},
	EventComplete:   {model.StatusInProgress},
	EventCancel:     {model.StatusOpen, model.StatusAssigned, model.StatusInProgress},
	EventReschedule: {model.StatusOpen, model.StatusAssigned},
}

// Input carries the event parameters
type Input struct {
	ActorID string
	Now     time.Time

	// Assign
	StaffID string

	// Reschedule
	StartTime time.Time
	EndTime   time.Time
}

// Plan is a transition ready to be committed
type Plan struct {
	Expected model.ShiftStatus
	Update   model.ShiftUpdate
}

// InitialStatus returns the status a newly created shift starts in
func InitialStatus(staffID string) model.ShiftStatus {
	if staffID != "" {
		return model.StatusAssigned
	}
	return model.StatusOpen
}

// CanFire reports whether ev is permitted from status, ignoring actor guards
func CanFire(status model.ShiftStatus, ev Event) bool {
	for _, s := range sources[ev] {
		if s == status {
			return true
		}
	}
	return false
}

// Check returns an InvalidTransitionError when ev may not fire from the shift's status
func Check(shift *model.Shift, ev Event) error {
	if !CanFire(shift.Status, ev) {
		return invalid(shift, ev)
	}
	return nil
}

// Transition plans ev against shift. It never mutates shift.
func Transition(shift *model.Shift, ev Event, in Input) (Plan, error) {
	if err := Check(shift, ev); err != nil {
		return Plan{}, err
	}

	plan := Plan{Expected: shift.Status}
	switch ev {
	case EventAssign:
		if in.StaffID == "" {
			return Plan{}, invalid(shift, ev)
		}
		plan.Update = model.ShiftUpdate{
			Status:  status(model.StatusAssigned),
			StaffID: &in.StaffID,
		}
	case EventStart:
		if !shift.IsAssignedTo(in.ActorID) {
			return Plan{}, invalid(shift, ev)
		}
		now := in.Now
		plan.Update = model.ShiftUpdate{
			Status:      status(model.StatusInProgress),
			CheckInTime: &now,
		}
	case EventComplete:
		if !shift.IsAssignedTo(in.ActorID) {
			return Plan{}, invalid(shift, ev)
		}
		now := in.Now
		plan.Update = model.ShiftUpdate{
			Status:       status(model.StatusCompleted),
			CheckOutTime: &now,
		}
	case EventCancel:
		if in.ActorID == "" {
			return Plan{}, invalid(shift, ev)
		}
		now, by := in.Now, in.ActorID
		plan.Update = model.ShiftUpdate{
			Status:      status(model.StatusCancelled),
			CancelledAt: &now,
			CancelledBy: &by,
		}
	case EventReschedule:
		start, end := in.StartTime, in.EndTime
		plan.Update = model.ShiftUpdate{
			StartTime: &start,
			EndTime:   &end,
		}
	default:
		return Plan{}, invalid(shift, ev)
	}
	return plan, nil
}

func invalid(shift *model.Shift, ev Event) error {
	return &apperr.InvalidTransitionError{ShiftID: shift.ID, Current: shift.Status, Event: string(ev)}
}

func status(s model.ShiftStatus) *model.ShiftStatus { return &s }
