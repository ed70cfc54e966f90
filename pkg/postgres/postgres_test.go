package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/db"
)

func TestTranslateErr(t *testing.T) {
	assert.NoError(t, translateErr(nil))
	assert.ErrorIs(t, translateErr(pgx.ErrNoRows), db.ErrNotFound)
	assert.ErrorIs(t, translateErr(fmt.Errorf("scan: %w", pgx.ErrNoRows)), db.ErrNotFound)

	unique := translateErr(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "shifts_idempotency_key_key"})
	assert.ErrorIs(t, unique, db.ErrUniqueViolation)
	assert.Contains(t, unique.Error(), "shifts_idempotency_key_key")

	check := &pgconn.PgError{Code: "23514", ConstraintName: "shifts_interval"}
	assert.Equal(t, error(check), translateErr(check))
}

func TestPendingMigrations(t *testing.T) {
	all, err := pendingMigrations(map[string]bool{})
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, "001_init.sql", all[0])

	done := make(map[string]bool, len(all))
	for _, f := range all {
		done[f] = true
	}
	none, err := pendingMigrations(done)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// openTestDB connects to CARE_SHIFTS_TEST_DATABASE_URL, skipping when unset
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("CARE_SHIFTS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CARE_SHIFTS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	d, err := NewDB(ctx, url)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	_, err = d.RunMigrations(ctx)
	require.NoError(t, err)
	return d
}

type pgFixture struct {
	staffID string
	homeID  string
}

func seedFixture(t *testing.T, d *DB) pgFixture {
	t.Helper()
	ctx := context.Background()
	f := pgFixture{staffID: "staff-" + uuid.NewString(), homeID: "home-" + uuid.NewString()}

	_, err := d.InsertProfile(ctx, &model.Profile{ID: f.staffID, Role: model.RoleStaff, FullName: "Ada", Email: "ada@example.com", IsAvailable: true})
	require.NoError(t, err)
	_, err = d.InsertCareHome(ctx, &model.CareHome{ID: f.homeID, Name: "Rose Court", Address: "1 High Street", GeofenceRadius: 100})
	require.NoError(t, err)
	return f
}

func TestDB_MigrationsAreIdempotent(t *testing.T) {
	d := openTestDB(t)

	ran, err := d.RunMigrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ran)
}

func TestDB_ShiftCompareAndSwap(t *testing.T) {
	d := openTestDB(t)
	f := seedFixture(t, d)
	ctx := context.Background()
	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	shift, err := d.InsertShift(ctx, &model.Shift{
		ID:         uuid.NewString(),
		CareHomeID: f.homeID,
		StaffID:    &f.staffID,
		Status:     model.StatusAssigned,
		StartTime:  start,
		EndTime:    start.Add(8 * time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, shift.StartTime.Equal(start))

	inProgress := model.StatusInProgress
	checkIn := time.Now().UTC()
	assigned := model.GuardOf(shift)
	updated, err := d.UpdateShift(ctx, shift.ID, assigned, model.ShiftUpdate{Status: &inProgress, CheckInTime: &checkIn})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	require.NotNil(t, updated.CheckInTime)

	_, err = d.UpdateShift(ctx, shift.ID, assigned, model.ShiftUpdate{Status: &inProgress, CheckInTime: &checkIn})
	assert.ErrorIs(t, err, db.ErrStaleWrite)

	_, err = d.UpdateShift(ctx, uuid.NewString(), assigned, model.ShiftUpdate{Status: &inProgress})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDB_UpdateShiftGuardsInterval(t *testing.T) {
	d := openTestDB(t)
	f := seedFixture(t, d)
	ctx := context.Background()
	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	shift, err := d.InsertShift(ctx, &model.Shift{
		ID:         uuid.NewString(),
		CareHomeID: f.homeID,
		Status:     model.StatusOpen,
		StartTime:  start,
		EndTime:    start.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	planned := model.GuardOf(shift)

	later, laterEnd := start.Add(4*time.Hour), start.Add(6*time.Hour)
	_, err = d.UpdateShift(ctx, shift.ID, planned, model.ShiftUpdate{StartTime: &later, EndTime: &laterEnd})
	require.NoError(t, err)

	assigned := model.StatusAssigned
	_, err = d.UpdateShift(ctx, shift.ID, planned, model.ShiftUpdate{Status: &assigned, StaffID: &f.staffID})
	assert.ErrorIs(t, err, db.ErrStaleWrite)

	got, err := d.GetShift(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.Nil(t, got.StaffID)
}

func TestDB_UniqueViolations(t *testing.T) {
	d := openTestDB(t)
	f := seedFixture(t, d)
	ctx := context.Background()
	start := time.Now().UTC().Add(time.Hour)
	key := "night:" + uuid.NewString()

	first := &model.Shift{ID: uuid.NewString(), CareHomeID: f.homeID, Status: model.StatusOpen, StartTime: start, EndTime: start.Add(time.Hour), IdempotencyKey: &key}
	_, err := d.InsertShift(ctx, first)
	require.NoError(t, err)

	second := *first
	second.ID = uuid.NewString()
	_, err = d.InsertShift(ctx, &second)
	assert.ErrorIs(t, err, db.ErrUniqueViolation)

	_, err = d.InsertProfile(ctx, &model.Profile{ID: f.staffID, Role: model.RoleStaff, FullName: "Ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, db.ErrUniqueViolation)

	_, err = d.InsertFeedback(ctx, &model.ShiftFeedback{ID: uuid.NewString(), ShiftID: first.ID, ManagerID: f.staffID, Rating: 3})
	require.NoError(t, err)
	_, err = d.InsertFeedback(ctx, &model.ShiftFeedback{ID: uuid.NewString(), ShiftID: first.ID, ManagerID: f.staffID, Rating: 4})
	assert.ErrorIs(t, err, db.ErrUniqueViolation)

	found, err := d.GetShiftByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestDB_RunForStaffRollsBack(t *testing.T) {
	d := openTestDB(t)
	f := seedFixture(t, d)
	ctx := context.Background()
	start := time.Now().UTC().Add(time.Hour)
	id := uuid.NewString()
	boom := errors.New("boom")

	err := d.RunForStaff(ctx, f.staffID, func(tx db.ShiftTx) error {
		if _, err := tx.InsertShift(ctx, &model.Shift{ID: id, CareHomeID: f.homeID, StaffID: &f.staffID, Status: model.StatusAssigned, StartTime: start, EndTime: start.Add(time.Hour)}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = d.GetShift(ctx, id)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDB_RunForStaffSerialises(t *testing.T) {
	d := openTestDB(t)
	f := seedFixture(t, d)
	ctx := context.Background()
	start := time.Now().UTC().Add(time.Hour)

	// Each caller inserts only if the staff member has nothing booked yet.
	const workers = 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.RunForStaff(ctx, f.staffID, func(tx db.ShiftTx) error {
				booked, err := tx.ListShiftsForStaff(ctx, f.staffID, model.ActiveStatuses)
				if err != nil || len(booked) > 0 {
					return err
				}
				_, err = tx.InsertShift(ctx, &model.Shift{ID: uuid.NewString(), CareHomeID: f.homeID, StaffID: &f.staffID, Status: model.StatusAssigned, StartTime: start, EndTime: start.Add(time.Hour)})
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	booked, err := d.ListShiftsForStaff(ctx, f.staffID, model.ActiveStatuses)
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}
