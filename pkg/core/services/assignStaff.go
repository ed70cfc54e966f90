package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/overlap"
	"github.com/jakechorley/care-shifts/pkg/core/policy"
	"github.com/jakechorley/care-shifts/pkg/core/shiftstate"
	"github.com/jakechorley/care-shifts/pkg/db"
	"github.com/jakechorley/care-shifts/pkg/utils/clock"
)

// StaffingStore defines the database operations needed to staff shifts
type StaffingStore interface {
	db.ShiftStore
	db.ProfileStore
}

// AssignStaff assigns an open shift to a staff member. The overlap scan and
// the assignment run under the staff member's lock, so two concurrent
// assignments of overlapping shifts to the same person cannot both commit.
func AssignStaff(ctx context.Context, store StaffingStore, clk clock.Clock, logger *zap.Logger, actor *model.Profile, shiftID, staffID string) (result *model.Shift, err error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	defer func() { observe(logger, shiftstate.EventAssign, shiftID, err) }()

	shift, err := loadShift(ctx, store, shiftID)
	if err != nil {
		return nil, err
	}
	if err := shiftstate.Check(shift, shiftstate.EventAssign); err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.AssignStaff, shift); err != nil {
		return nil, err
	}
	if _, err := checkAssignee(ctx, store, staffID); err != nil {
		return nil, err
	}
	// Assigning a shift that has already begun is allowed; only its shape is checked.
	if err := overlap.ValidateInterval(shift.StartTime, shift.EndTime, time.Time{}); err != nil {
		return nil, err
	}

	logger.Debug("Assigning staff to shift", zap.String("shift_id", shiftID), zap.String("staff_id", staffID))

	err = store.RunForStaff(ctx, staffID, func(tx db.ShiftTx) error {
		current, err := loadShift(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if err := overlap.Require(ctx, tx, staffID, current.StartTime, current.EndTime, current.ID); err != nil {
			return err
		}
		plan, err := shiftstate.Transition(current, shiftstate.EventAssign, shiftstate.Input{
			ActorID: actor.ID,
			Now:     clk.Now(),
			StaffID: staffID,
		})
		if err != nil {
			return err
		}
		result, err = commit(ctx, tx, current, shiftstate.EventAssign, plan)
		return err
	})
	if err != nil {
		return nil, wrapStore("assign staff to shift "+shiftID, err)
	}

	logger.Info("Staff assigned to shift", zap.String("shift_id", result.ID), zap.String("staff_id", staffID))
	return result, nil
}
