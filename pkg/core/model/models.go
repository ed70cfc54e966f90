package model

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleStaff || r == RoleManager || r == RoleAdmin
}

// ParseRole converts a stored or user-supplied string into a Role, rejecting unknown values
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type ShiftStatus string

const (
	StatusOpen       ShiftStatus = "open"
	StatusAssigned   ShiftStatus = "assigned"
	StatusInProgress ShiftStatus = "in_progress"
	StatusCompleted  ShiftStatus = "completed"
	StatusCancelled  ShiftStatus = "cancelled"
)

func (s ShiftStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s
func (s ShiftStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus converts a stored or user-supplied string into a ShiftStatus
func ParseStatus(s string) (ShiftStatus, error) {
	st := ShiftStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown shift status %q", s)
	}
	return st, nil
}

// ActiveStatuses are the statuses that occupy a staff member's time
var ActiveStatuses = []ShiftStatus{StatusAssigned, StatusInProgress}

// Identity is an authenticated session subject from the identity provider
type Identity struct {
	ID    string
	Email string
}

// Profile is the application-level record of an identity
type Profile struct {
	ID          string
	Role        Role
	FullName    string
	Email       string
	Phone       *string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileUpdate holds the profile fields a caller wants to change; nil means unchanged
type ProfileUpdate struct {
	FullName    *string `validate:"omitempty,min=1,max=200"`
	Email       *string `validate:"omitempty,email"`
	Phone       *string `validate:"omitempty,max=32"`
	IsAvailable *bool
	Role        *Role
}

// Apply copies the non-nil fields onto p
func (u ProfileUpdate) Apply(p *Profile) {
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Phone != nil {
		if *u.Phone == "" {
			p.Phone = nil
		} else {
			phone := *u.Phone
			p.Phone = &phone
		}
	}
	if u.IsAvailable != nil {
		p.IsAvailable = *u.IsAvailable
	}
	if u.Role != nil {
		p.Role = *u.Role
	}
}

// CareHome is a physical site shifts take place at
type CareHome struct {
	ID             string
	Name           string
	Address        string
	Latitude       float64
	Longitude      float64
	GeofenceRadius int // metres
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Shift is a scheduled work interval at a care home
type Shift struct {
	ID             string
	CareHomeID     string
	StaffID        *string // nil when unfilled
	Status         ShiftStatus
	StartTime      time.Time
	EndTime        time.Time
	CheckInTime    *time.Time
	CheckOutTime   *time.Time
	CancelledAt    *time.Time
	CancelledBy    *string
	IdempotencyKey *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAssignedTo reports whether the shift's staff member is profileID
func (s *Shift) IsAssignedTo(profileID string) bool {
	return s.StaffID != nil && *s.StaffID == profileID
}

// ShiftUpdate is the set of fields a transition writes; nil means unchanged
type ShiftUpdate struct {
	Status       *ShiftStatus
	StaffID      *string
	StartTime    *time.Time
	EndTime      *time.Time
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	CancelledAt  *time.Time
	CancelledBy  *string
}

// Apply copies the non-nil fields onto s
func (u ShiftUpdate) Apply(s *Shift) {
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.StaffID != nil {
		id := *u.StaffID
		s.StaffID = &id
	}
	if u.StartTime != nil {
		s.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		s.EndTime = *u.EndTime
	}
	if u.CheckInTime != nil {
		t := *u.CheckInTime
		s.CheckInTime = &t
	}
	if u.CheckOutTime != nil {
		t := *u.CheckOutTime
		s.CheckOutTime = &t
	}
	if u.CancelledAt != nil {
		t := *u.CancelledAt
		s.CancelledAt = &t
	}
	if u.CancelledBy != nil {
		by := *u.CancelledBy
		s.CancelledBy = &by
	}
}

// ShiftGuard is the snapshot a guarded shift update was planned against.
// Every transition changes either the status or the interval, so a write that
// still matches all three has not been overtaken by another writer.
type ShiftGuard struct {
	Status    ShiftStatus
	StartTime time.Time
	EndTime   time.Time
}

// GuardOf returns the guard for s as it stands
func GuardOf(s *Shift) ShiftGuard {
	return ShiftGuard{Status: s.Status, StartTime: s.StartTime, EndTime: s.EndTime}
}

// Matches reports whether s is still in the guarded state
func (g ShiftGuard) Matches(s *Shift) bool {
	return s.Status == g.Status && s.StartTime.Equal(g.StartTime) && s.EndTime.Equal(g.EndTime)
}

// ShiftFeedback is a manager's rating of a completed shift
type ShiftFeedback struct {
	ID        string
	ShiftID   string
	ManagerID string
	Rating    int
	Comment   *string
	CreatedAt time.Time
}
