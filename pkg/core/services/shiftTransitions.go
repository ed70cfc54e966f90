package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/policy"
	"github.com/jakechorley/care-shifts/pkg/core/shiftstate"
	"github.com/jakechorley/care-shifts/pkg/db"
	"github.com/jakechorley/care-shifts/pkg/utils/clock"
)

// StartShift checks the assigned staff member in
func StartShift(ctx context.Context, store db.ShiftStore, clk clock.Clock, logger *zap.Logger, actor *model.Profile, shiftID string) (*model.Shift, error) {
	return runTransition(ctx, store, clk, logger, actor, shiftID, shiftstate.EventStart, policy.StartShift)
}

// CompleteShift checks the assigned staff member out
func CompleteShift(ctx context.Context, store db.ShiftStore, clk clock.Clock, logger *zap.Logger, actor *model.Profile, shiftID string) (*model.Shift, error) {
	return runTransition(ctx, store, clk, logger, actor, shiftID, shiftstate.EventComplete, policy.CompleteShift)
}

// CancelShift cancels a shift that has not finished
func CancelShift(ctx context.Context, store db.ShiftStore, clk clock.Clock, logger *zap.Logger, actor *model.Profile, shiftID string) (*model.Shift, error) {
	return runTransition(ctx, store, clk, logger, actor, shiftID, shiftstate.EventCancel, policy.CancelShift)
}

// runTransition loads the shift, refuses events its status does not allow,
// applies the policy, then commits guarded on the status it read. The status
// check comes first so that the loser of two racing starts sees an invalid
// transition rather than a policy denial.
func runTransition(ctx context.Context, store db.ShiftStore, clk clock.Clock, logger *zap.Logger, actor *model.Profile, shiftID string, ev shiftstate.Event, action policy.Action) (result *model.Shift, err error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	defer func() { observe(logger, ev, shiftID, err) }()

	shift, err := loadShift(ctx, store, shiftID)
	if err != nil {
		return nil, err
	}
	if err := shiftstate.Check(shift, ev); err != nil {
		return nil, err
	}
	if err := authorize(actor, action, shift); err != nil {
		return nil, err
	}

	plan, err := shiftstate.Transition(shift, ev, shiftstate.Input{ActorID: actor.ID, Now: clk.Now()})
	if err != nil {
		return nil, err
	}

	logger.Debug("Applying shift transition",
		zap.String("shift_id", shiftID),
		zap.String("event", string(ev)),
		zap.String("from", string(plan.Expected)),
		zap.String("actor_id", actor.ID))

	result, err = commit(ctx, store, shift, ev, plan)
	if err != nil {
		return nil, err
	}

	logger.Info("Shift transitioned",
		zap.String("shift_id", result.ID),
		zap.String("event", string(ev)),
		zap.String("status", string(result.Status)))
	return result, nil
}
