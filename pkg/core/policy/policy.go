package policy

import (
	"github.com/jakechorley/care-shifts/pkg/core/model"
)

// ActionKind identifies an operation an actor wants to perform
type ActionKind string

const (
	KindCreateShift     ActionKind = "create_shift"
	KindAssignStaff     ActionKind = "assign_staff"
	KindStartShift      ActionKind = "start_shift"
	KindCompleteShift   ActionKind = "complete_shift"
	KindCancelShift     ActionKind = "cancel_shift"
	KindViewShift       ActionKind = "view_shift"
	KindRescheduleShift ActionKind = "reschedule_shift"
	KindLeaveFeedback   ActionKind = "leave_feedback"
	KindEditProfile     ActionKind = "edit_profile"
	KindChangeRole      ActionKind = "change_role"
	KindAddCareHome     ActionKind = "add_care_home"
)

// Action is an ActionKind plus the profile it targets, for profile actions
type Action struct {
	Kind    ActionKind
	OwnerID string
}

func (a Action) String() string {
	if a.OwnerID != "" {
		return string(a.Kind) + "(" + a.OwnerID + ")"
	}
	return string(a.Kind)
}

var (
	CreateShift     = Action{Kind: KindCreateShift}
	AssignStaff     = Action{Kind: KindAssignStaff}
	StartShift      = Action{Kind: KindStartShift}
	CompleteShift   = Action{Kind: KindCompleteShift}
	CancelShift     = Action{Kind: KindCancelShift}
	ViewShift       = Action{Kind: KindViewShift}
	RescheduleShift = Action{Kind: KindRescheduleShift}
	LeaveFeedback   = Action{Kind: KindLeaveFeedback}
	AddCareHome     = Action{Kind: KindAddCareHome}
)

// EditProfile targets the profile owned by ownerID
func EditProfile(ownerID string) Action {
	return Action{Kind: KindEditProfile, OwnerID: ownerID}
}

// ChangeRole targets the role of the profile owned by ownerID
func ChangeRole(ownerID string) Action {
	return Action{Kind: KindChangeRole, OwnerID: ownerID}
}

// Decision is the outcome of an authorization check
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

type rule struct {
	role    model.Role // empty matches any role
	actions []ActionKind
	when    func(actor *model.Profile, action Action, shift *model.Shift) bool
}

func always(*model.Profile, Action, *model.Shift) bool { return true }

func ownsShiftIn(status model.ShiftStatus) func(*model.Profile, Action, *model.Shift) bool {
	return func(actor *model.Profile, _ Action, shift *model.Shift) bool {
		return shift != nil && shift.IsAssignedTo(actor.ID) && shift.Status == status
	}
}

func ownsShift(actor *model.Profile, _ Action, shift *model.Shift) bool {
	return shift != nil && shift.IsAssignedTo(actor.ID)
}

func ownsProfile(actor *model.Profile, action Action, _ *model.Shift) bool {
	return action.OwnerID != "" && actor.ID == action.OwnerID
}

// rules is evaluated top to bottom; the first row whose role, action and
// condition all match allows the request. Nothing matching means deny.
var rules = []rule{
	{role: model.RoleAdmin, when: always},
	{role: model.RoleManager, actions: []ActionKind{KindCreateShift, KindAssignStaff, KindCancelShift}, when: always},
	{role: model.RoleStaff, actions: []ActionKind{KindStartShift}, when: ownsShiftIn(model.StatusAssigned)},
	{role: model.RoleStaff, actions: []ActionKind{KindCompleteShift}, when: ownsShiftIn(model.StatusInProgress)},
	{role: model.RoleStaff, actions: []ActionKind{KindCancelShift}, when: ownsShift},
	{actions: []ActionKind{KindEditProfile}, when: ownsProfile},
	{role: model.RoleManager, actions: []ActionKind{KindRescheduleShift, KindViewShift, KindLeaveFeedback}, when: always},
	{role: model.RoleStaff, actions: []ActionKind{KindViewShift}, when: ownsShift},
}

func (r rule) matches(actor *model.Profile, action Action) bool {
	if r.role != "" && r.role != actor.Role {
		return false
	}
	if len(r.actions) == 0 {
		return true
	}
	for _, k := range r.actions {
		if k == action.Kind {
			return true
		}
	}
	return false
}

// Authorize decides whether actor may perform action on shift. shift may be
// nil for actions that do not target one. An actor with an unknown role is
// always denied.
func Authorize(actor *model.Profile, action Action, shift *model.Shift) Decision {
	if actor == nil || !actor.Role.IsValid() {
		return Deny
	}
	for _, r := range rules {
		if r.matches(actor, action) && r.when(actor, action, shift) {
			return Allow
		}
	}
	return Deny
}
