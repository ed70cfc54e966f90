package db

import (
	"context"
	"time"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

// ProfileFilter narrows ListProfiles. Zero values match everything.
type ProfileFilter struct {
	Role          model.Role
	AvailableOnly bool
}

// ShiftFilter narrows ListShifts. Zero values match everything.
type ShiftFilter struct {
	StaffID    string
	CareHomeID string
	Statuses   []model.ShiftStatus
	From       time.Time // shifts ending after From
	Until      time.Time // shifts starting before Until
}

// ProfileStore defines the interface for profile database operations
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	InsertProfile(ctx context.Context, profile *model.Profile) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.Profile, error)
	ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.Profile, error)
}

// CareHomeStore defines the interface for care home database operations
type CareHomeStore interface {
	GetCareHome(ctx context.Context, id string) (*model.CareHome, error)
	ListCareHomes(ctx context.Context) ([]model.CareHome, error)
	InsertCareHome(ctx context.Context, home *model.CareHome) (*model.CareHome, error)
}

// ShiftReader defines the read side of shift database operations
type ShiftReader interface {
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	GetShiftByIdempotencyKey(ctx context.Context, key string) (*model.Shift, error)
	ListShiftsForStaff(ctx context.Context, staffID string, statuses []model.ShiftStatus) ([]model.Shift, error)
	ListShifts(ctx context.Context, filter ShiftFilter) ([]model.Shift, error)
}

// ShiftWriter defines the write side of shift database operations.
//
// UpdateShift commits update only if the stored shift still matches
// expected (status and interval), returning ErrStaleWrite otherwise.
type ShiftWriter interface {
	InsertShift(ctx context.Context, shift *model.Shift) (*model.Shift, error)
	UpdateShift(ctx context.Context, id string, expected model.ShiftGuard, update model.ShiftUpdate) (*model.Shift, error)
}

// ShiftTx is the view of the shift store available inside RunForStaff
type ShiftTx interface {
	ShiftReader
	ShiftWriter
}

// ShiftStore defines the interface for shift database operations.
//
// RunForStaff runs fn with every other RunForStaff call for the same
// staffID excluded, so a conflict scan and the write that depends on it
// commit as one unit. An error from fn discards its writes where the
// backend supports it.
type ShiftStore interface {
	ShiftTx
	RunForStaff(ctx context.Context, staffID string, fn func(tx ShiftTx) error) error
}

// FeedbackStore defines the interface for shift feedback database operations
type FeedbackStore interface {
	InsertFeedback(ctx context.Context, feedback *model.ShiftFeedback) (*model.ShiftFeedback, error)
	ListFeedbackForShift(ctx context.Context, shiftID string) ([]model.ShiftFeedback, error)
}

// Database defines the interface for all database operations.
// Both the in-memory MemoryDB and postgres.DB implement this interface.
type Database interface {
	ProfileStore
	CareHomeStore
	ShiftStore
	FeedbackStore
}
