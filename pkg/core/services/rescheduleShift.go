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

// RescheduleShift moves an open or assigned shift to a new interval. A
// staffed shift is re-checked for overlaps against the assignee's other
// shifts under the assignee's lock.
func RescheduleShift(ctx context.Context, store db.ShiftStore, clk clock.Clock, logger *zap.Logger, actor *model.Profile, shiftID string, start, end time.Time) (result *model.Shift, err error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	defer func() { observe(logger, shiftstate.EventReschedule, shiftID, err) }()

	shift, err := loadShift(ctx, store, shiftID)
	if err != nil {
		return nil, err
	}
	if err := shiftstate.Check(shift, shiftstate.EventReschedule); err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.RescheduleShift, shift); err != nil {
		return nil, err
	}
	start, end = start.UTC(), end.UTC()
	if err := overlap.ValidateInterval(start, end, clk.Now()); err != nil {
		return nil, err
	}

	in := shiftstate.Input{ActorID: actor.ID, Now: clk.Now(), StartTime: start, EndTime: end}

	if shift.StaffID == nil {
		plan, err := shiftstate.Transition(shift, shiftstate.EventReschedule, in)
		if err != nil {
			return nil, err
		}
		result, err = commit(ctx, store, shift, shiftstate.EventReschedule, plan)
		if err != nil {
			return nil, err
		}
	} else {
		staffID := *shift.StaffID
		err = store.RunForStaff(ctx, staffID, func(tx db.ShiftTx) error {
			current, err := loadShift(ctx, tx, shiftID)
			if err != nil {
				return err
			}
			if err := overlap.Require(ctx, tx, staffID, start, end, current.ID); err != nil {
				return err
			}
			plan, err := shiftstate.Transition(current, shiftstate.EventReschedule, in)
			if err != nil {
				return err
			}
			result, err = commit(ctx, tx, current, shiftstate.EventReschedule, plan)
			return err
		})
		if err != nil {
			return nil, wrapStore("reschedule shift "+shiftID, err)
		}
	}

	logger.Info("Shift rescheduled",
		zap.String("shift_id", result.ID),
		zap.Time("start_time", result.StartTime),
		zap.Time("end_time", result.EndTime))
	return result, nil
}
