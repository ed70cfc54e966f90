package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/policy"
	"github.com/jakechorley/care-shifts/pkg/core/shiftstate"
	"github.com/jakechorley/care-shifts/pkg/db"
	"github.com/jakechorley/care-shifts/pkg/utils/metrics"
)

var validate = validator.New()

// validationErr turns a validator failure into an apperr.ErrValidation
func validationErr(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

// requireActor rejects calls without a usable actor profile
func requireActor(actor *model.Profile) error {
	if actor == nil || actor.ID == "" {
		return apperr.Validation("an actor profile is required")
	}
	if !actor.Role.IsValid() {
		return apperr.Validation("actor %s has unknown role %q", actor.ID, actor.Role)
	}
	return nil
}

// authorize returns apperr.ErrUnauthorized when the policy denies the action
func authorize(actor *model.Profile, action policy.Action, shift *model.Shift) error {
	if policy.Authorize(actor, action, shift) == policy.Deny {
		return apperr.Unauthorized(actor.ID, action.String())
	}
	return nil
}

// loadShift reads a shift, translating store errors
func loadShift(ctx context.Context, store db.ShiftReader, id string) (*model.Shift, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("shift id is required")
	}
	shift, err := store.GetShift(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("shift", id)
	}
	if err != nil {
		return nil, apperr.Store("get shift "+id, err)
	}
	return shift, nil
}

// commit writes plan with a compare-and-swap on the status and interval it was
// planned against. Losing the race surfaces as an InvalidTransitionError naming
// the status the winner left behind.
func commit(ctx context.Context, store db.ShiftTx, shift *model.Shift, ev shiftstate.Event, plan shiftstate.Plan) (*model.Shift, error) {
	guard := model.GuardOf(shift)
	guard.Status = plan.Expected
	updated, err := store.UpdateShift(ctx, shift.ID, guard, plan.Update)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, db.ErrStaleWrite):
		current := shift.Status
		if fresh, gerr := store.GetShift(ctx, shift.ID); gerr == nil {
			current = fresh.Status
		}
		return nil, &apperr.InvalidTransitionError{ShiftID: shift.ID, Current: current, Event: string(ev)}
	case errors.Is(err, db.ErrNotFound):
		return nil, apperr.NotFound("shift", shift.ID)
	default:
		return nil, apperr.Store("update shift "+shift.ID, err)
	}
}

// wrapStore marks an unclassified error escaping RunForStaff as a store
// failure; classified errors pass through.
func wrapStore(op string, err error) error {
	if err != nil && apperr.KindOf(err) == apperr.KindStore && !errors.Is(err, apperr.ErrStore) {
		return apperr.Store(op, err)
	}
	return err
}

// observe records the outcome of a shift mutation
func observe(logger *zap.Logger, ev shiftstate.Event, shiftID string, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNone:
		metrics.ObserveTransition(string(ev), metrics.OutcomeCommitted)
	case apperr.KindStore:
		metrics.ObserveTransition(string(ev), metrics.OutcomeFailed)
		logger.Error("Shift mutation failed", zap.String("event", string(ev)), zap.String("shift_id", shiftID), zap.Error(err))
	case apperr.KindSchedulingConflict:
		metrics.ObserveConflict()
		fallthrough
	default:
		metrics.ObserveTransition(string(ev), metrics.OutcomeRejected)
		logger.Debug("Shift mutation rejected", zap.String("event", string(ev)), zap.String("shift_id", shiftID), zap.Error(err))
	}
}

type profileReader interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
}

// checkAssignee verifies staffID names an available staff profile
func checkAssignee(ctx context.Context, store profileReader, staffID string) (*model.Profile, error) {
	if strings.TrimSpace(staffID) == "" {
		return nil, apperr.Validation("staff id is required")
	}
	p, err := store.GetProfile(ctx, staffID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("profile", staffID)
	}
	if err != nil {
		return nil, apperr.Store("get profile "+staffID, err)
	}
	if p.Role != model.RoleStaff {
		return nil, apperr.Validation("profile %s has role %s, only staff can be assigned to shifts", staffID, p.Role)
	}
	if !p.IsAvailable {
		return nil, apperr.Validation("staff member %s is not available", staffID)
	}
	return p, nil
}

// normalizeEmail trims and lower-cases an email address
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
