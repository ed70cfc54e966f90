package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

func profile(id string, role model.Role) *model.Profile {
	return &model.Profile{ID: id, Role: role}
}

func shiftFor(staffID string, status model.ShiftStatus) *model.Shift {
	s := &model.Shift{ID: "shift-1", Status: status}
	if staffID != "" {
		s.StaffID = &staffID
	}
	return s
}

func TestAuthorize(t *testing.T) {
	admin := profile("admin-1", model.RoleAdmin)
	manager := profile("mgr-1", model.RoleManager)
	staff := profile("staff-1", model.RoleStaff)
	otherStaff := profile("staff-2", model.RoleStaff)

	tests := []struct {
		name   string
		actor  *model.Profile
		action Action
		shift  *model.Shift
		want   Decision
	}{
		{"admin can do anything", admin, ChangeRole("someone"), nil, Allow},
		{"admin can start any shift", admin, StartShift, shiftFor("staff-1", model.StatusAssigned), Allow},
		{"admin can add care homes", admin, AddCareHome, nil, Allow},

		{"manager creates shift", manager, CreateShift, nil, Allow},
		{"manager assigns staff", manager, AssignStaff, shiftFor("", model.StatusOpen), Allow},
		{"manager cancels shift", manager, CancelShift, shiftFor("staff-1", model.StatusAssigned), Allow},
		{"manager cannot start shift", manager, StartShift, shiftFor("mgr-1", model.StatusAssigned), Deny},
		{"manager cannot complete shift", manager, CompleteShift, shiftFor("staff-1", model.StatusInProgress), Deny},
		{"manager reschedules", manager, RescheduleShift, shiftFor("", model.StatusOpen), Allow},
		{"manager views any shift", manager, ViewShift, shiftFor("staff-1", model.StatusAssigned), Allow},
		{"manager leaves feedback", manager, LeaveFeedback, shiftFor("staff-1", model.StatusCompleted), Allow},
		{"manager cannot change roles", manager, ChangeRole("staff-1"), nil, Deny},
		{"manager cannot add care homes", manager, AddCareHome, nil, Deny},

		{"staff starts own assigned shift", staff, StartShift, shiftFor("staff-1", model.StatusAssigned), Allow},
		{"staff cannot start own in-progress shift", staff, StartShift, shiftFor("staff-1", model.StatusInProgress), Deny},
		{"staff cannot start someone else's shift", otherStaff, StartShift, shiftFor("staff-1", model.StatusAssigned), Deny},
		{"staff completes own in-progress shift", staff, CompleteShift, shiftFor("staff-1", model.StatusInProgress), Allow},
		{"staff cannot complete own assigned shift", staff, CompleteShift, shiftFor("staff-1", model.StatusAssigned), Deny},
		{"staff cancels own shift", staff, CancelShift, shiftFor("staff-1", model.StatusAssigned), Allow},
		{"staff cannot cancel someone else's shift", otherStaff, CancelShift, shiftFor("staff-1", model.StatusAssigned), Deny},
		{"staff cannot cancel open shift", staff, CancelShift, shiftFor("", model.StatusOpen), Deny},
		{"staff cannot create shift", staff, CreateShift, nil, Deny},
		{"staff cannot assign", staff, AssignStaff, shiftFor("", model.StatusOpen), Deny},
		{"staff views own shift", staff, ViewShift, shiftFor("staff-1", model.StatusCompleted), Allow},
		{"staff cannot view other shift", otherStaff, ViewShift, shiftFor("staff-1", model.StatusAssigned), Deny},
		{"staff cannot reschedule", staff, RescheduleShift, shiftFor("staff-1", model.StatusAssigned), Deny},
		{"staff cannot leave feedback", staff, LeaveFeedback, shiftFor("staff-1", model.StatusCompleted), Deny},
		{"staff shift action without a shift", staff, StartShift, nil, Deny},

		{"anyone edits own profile", staff, EditProfile("staff-1"), nil, Allow},
		{"manager edits own profile", manager, EditProfile("mgr-1"), nil, Allow},
		{"staff cannot edit other profile", staff, EditProfile("staff-2"), nil, Deny},
		{"manager cannot edit other profile", manager, EditProfile("staff-1"), nil, Deny},
		{"edit profile needs an owner", staff, Action{Kind: KindEditProfile}, nil, Deny},
		{"staff cannot change own role", staff, ChangeRole("staff-1"), nil, Deny},

		{"nil actor", nil, ViewShift, shiftFor("staff-1", model.StatusAssigned), Deny},
		{"unknown role", profile("x", model.Role("owner")), CreateShift, nil, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.actor, tt.action, tt.shift))
		})
	}
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "create_shift", CreateShift.String())
	assert.Equal(t, "edit_profile(u-1)", EditProfile("u-1").String())
}
