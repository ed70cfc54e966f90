package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/db"
	"github.com/jakechorley/care-shifts/pkg/utils/clock"
)

// Monday 2 March 2026, 07:00 UTC
var testNow = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

// at returns testNow's day at hour:00 UTC
func at(hour int) time.Time {
	return time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC)
}

type fixture struct {
	ctx     context.Context
	db      *db.MemoryDB
	clk     *clock.FakeClock
	logger  *zap.Logger
	admin   *model.Profile
	manager *model.Profile
	staff   *model.Profile
	other   *model.Profile
	away    *model.Profile
	homeID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:    context.Background(),
		db:     db.NewMemoryDB(),
		clk:    clock.Fake(testNow),
		logger: zap.NewNop(),
		homeID: "home-1",
	}

	profiles := []model.Profile{
		{ID: "admin-1", Role: model.RoleAdmin, FullName: "Admin", Email: "admin@example.com", IsAvailable: true},
		{ID: "manager-1", Role: model.RoleManager, FullName: "Manager", Email: "manager@example.com", IsAvailable: true},
		{ID: "staff-1", Role: model.RoleStaff, FullName: "Ada", Email: "ada@example.com", IsAvailable: true},
		{ID: "staff-2", Role: model.RoleStaff, FullName: "Grace", Email: "grace@example.com", IsAvailable: true},
		{ID: "staff-3", Role: model.RoleStaff, FullName: "Alan", Email: "alan@example.com", IsAvailable: false},
	}
	homes := []model.CareHome{{ID: f.homeID, Name: "Rose Court", Address: "1 High Street"}}
	_, err := db.Seed(f.ctx, f.db, profiles, homes)
	require.NoError(t, err)

	f.admin = f.profile(t, "admin-1")
	f.manager = f.profile(t, "manager-1")
	f.staff = f.profile(t, "staff-1")
	f.other = f.profile(t, "staff-2")
	f.away = f.profile(t, "staff-3")
	return f
}

func (f *fixture) profile(t *testing.T, id string) *model.Profile {
	t.Helper()
	p, err := f.db.GetProfile(f.ctx, id)
	require.NoError(t, err)
	return p
}

// createShift creates a shift as the manager, assigned to staffID when non-empty
func (f *fixture) createShift(t *testing.T, staffID string, start, end time.Time) *model.Shift {
	t.Helper()
	s, err := CreateShift(f.ctx, f.db, f.clk, f.logger, f.manager, CreateShiftRequest{
		CareHomeID: f.homeID,
		StaffID:    staffID,
		StartTime:  start,
		EndTime:    end,
	})
	require.NoError(t, err)
	return s
}

// failingShiftLister makes every conflict scan fail
type failingShiftLister struct {
	*db.MemoryDB
	err error
}

func (f failingShiftLister) ListShiftsForStaff(ctx context.Context, staffID string, statuses []model.ShiftStatus) ([]model.Shift, error) {
	return nil, f.err
}

func (f failingShiftLister) RunForStaff(ctx context.Context, staffID string, fn func(tx db.ShiftTx) error) error {
	return f.MemoryDB.RunForStaff(ctx, staffID, func(db.ShiftTx) error { return fn(f) })
}

// interleavingStore runs between once, straight after the first conflict scan
// inside RunForStaff, standing in for a writer that commits mid-transaction
type interleavingStore struct {
	*db.MemoryDB
	once    sync.Once
	between func()
}

func (s *interleavingStore) ListShiftsForStaff(ctx context.Context, staffID string, statuses []model.ShiftStatus) ([]model.Shift, error) {
	shifts, err := s.MemoryDB.ListShiftsForStaff(ctx, staffID, statuses)
	s.once.Do(s.between)
	return shifts, err
}

func (s *interleavingStore) RunForStaff(ctx context.Context, staffID string, fn func(tx db.ShiftTx) error) error {
	return s.MemoryDB.RunForStaff(ctx, staffID, func(db.ShiftTx) error { return fn(s) })
}

// lockFailingStore fails every RunForStaff before fn runs
type lockFailingStore struct {
	*db.MemoryDB
	err error
}

func (l lockFailingStore) RunForStaff(ctx context.Context, staffID string, fn func(tx db.ShiftTx) error) error {
	return fmt.Errorf("failed to acquire staff lock: %w", l.err)
}
