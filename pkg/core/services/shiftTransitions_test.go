package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
)

func TestShiftLifecycle(t *testing.T) {
	f := newFixture(t)
	shift := f.createShift(t, f.staff.ID, at(9), at(17))

	f.clk.Set(at(9).Add(-5 * time.Minute))
	started, err := StartShift(f.ctx, f.db, f.clk, f.logger, f.staff, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, started.Status)
	require.NotNil(t, started.CheckInTime)
	assert.True(t, started.CheckInTime.Equal(f.clk.Now()))

	f.clk.Set(at(17).Add(3 * time.Minute))
	completed, err := CompleteShift(f.ctx, f.db, f.clk, f.logger, f.staff, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CheckOutTime)
	assert.True(t, completed.CheckOutTime.Equal(f.clk.Now()))
	assert.True(t, completed.CheckInTime.Equal(*started.CheckInTime))
}

func TestStartShift_ConcurrentCheckIns(t *testing.T) {
	f := newFixture(t)
	shift := f.createShift(t, f.staff.ID, at(9), at(17))

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = StartShift(f.ctx, f.db, f.clk, f.logger, f.staff, shift.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var invalid *apperr.InvalidTransitionError
		if assert.ErrorAs(t, err, &invalid) {
			assert.Equal(t, model.StatusInProgress, invalid.Current)
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := f.db.GetShift(f.ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, stored.Status)
	require.NotNil(t, stored.CheckInTime)
}

func TestStartShift_Rejects(t *testing.T) {
	f := newFixture(t)
	mine := f.createShift(t, f.staff.ID, at(9), at(17))
	open := f.createShift(t, "", at(9), at(17))

	tests := []struct {
		name    string
		actor   *model.Profile
		shiftID string
		kind    apperr.Kind
	}{
		{"other staff member", f.other, mine.ID, apperr.KindUnauthorized},
		{"manager", f.manager, mine.ID, apperr.KindUnauthorized},
		{"admin is not the assignee", f.admin, mine.ID, apperr.KindInvalidTransition},
		{"open shift", f.staff, open.ID, apperr.KindInvalidTransition},
		{"unknown shift", f.staff, "missing", apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StartShift(f.ctx, f.db, f.clk, f.logger, tt.actor, tt.shiftID)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestCompleteShift_RequiresInProgress(t *testing.T) {
	f := newFixture(t)
	shift := f.createShift(t, f.staff.ID, at(9), at(17))

	_, err := CompleteShift(f.ctx, f.db, f.clk, f.logger, f.staff, shift.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = StartShift(f.ctx, f.db, f.clk, f.logger, f.staff, shift.ID)
	require.NoError(t, err)

	_, err = CompleteShift(f.ctx, f.db, f.clk, f.logger, f.other, shift.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestCancelShift(t *testing.T) {
	f := newFixture(t)

	t.Run("staff cancels own shift", func(t *testing.T) {
		shift := f.createShift(t, f.staff.ID, at(9), at(17))
		cancelled, err := CancelShift(f.ctx, f.db, f.clk, f.logger, f.staff, shift.ID)
		require.NoError(t, err)

		assert.Equal(t, model.StatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledBy)
		assert.Equal(t, f.staff.ID, *cancelled.CancelledBy)
		require.NotNil(t, cancelled.CancelledAt)
		assert.True(t, cancelled.CancelledAt.Equal(f.clk.Now()))
	})

	t.Run("manager cancels open shift", func(t *testing.T) {
		shift := f.createShift(t, "", at(9), at(17))
		cancelled, err := CancelShift(f.ctx, f.db, f.clk, f.logger, f.manager, shift.ID)
		require.NoError(t, err)
		assert.Equal(t, f.manager.ID, *cancelled.CancelledBy)
	})

	t.Run("staff cannot cancel another's shift", func(t *testing.T) {
		shift := f.createShift(t, f.other.ID, at(9), at(17))
		_, err := CancelShift(f.ctx, f.db, f.clk, f.logger, f.staff, shift.ID)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestTerminalShiftsAreImmutable(t *testing.T) {
	f := newFixture(t)

	completed := f.createShift(t, f.staff.ID, at(9), at(17))
	_, err := StartShift(f.ctx, f.db, f.clk, f.logger, f.staff, completed.ID)
	require.NoError(t, err)
	_, err = CompleteShift(f.ctx, f.db, f.clk, f.logger, f.staff, completed.ID)
	require.NoError(t, err)

	cancelled := f.createShift(t, "", at(9), at(17))
	_, err = CancelShift(f.ctx, f.db, f.clk, f.logger, f.manager, cancelled.ID)
	require.NoError(t, err)

	for _, id := range []string{completed.ID, cancelled.ID} {
		before, err := f.db.GetShift(f.ctx, id)
		require.NoError(t, err)

		_, err = StartShift(f.ctx, f.db, f.clk, f.logger, f.staff, id)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		_, err = CompleteShift(f.ctx, f.db, f.clk, f.logger, f.staff, id)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		_, err = CancelShift(f.ctx, f.db, f.clk, f.logger, f.admin, id)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		_, err = AssignStaff(f.ctx, f.db, f.clk, f.logger, f.admin, id, f.other.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		_, err = RescheduleShift(f.ctx, f.db, f.clk, f.logger, f.admin, id, at(10), at(12))
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

		after, err := f.db.GetShift(f.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	}
}
