package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/policy"
	"github.com/jakechorley/care-shifts/pkg/db"
)

// ViewShift returns a single shift the actor is allowed to see
func ViewShift(ctx context.Context, store db.ShiftReader, logger *zap.Logger, actor *model.Profile, shiftID string) (*model.Shift, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	shift, err := loadShift(ctx, store, shiftID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ViewShift, shift); err != nil {
		return nil, err
	}
	logger.Debug("Viewed shift", zap.String("shift_id", shiftID), zap.String("actor_id", actor.ID))
	return shift, nil
}

// ListShifts returns the shifts matching filter. Staff only ever see their
// own shifts: an empty StaffID is narrowed to the actor and asking for
// anyone else's is refused.
func ListShifts(ctx context.Context, store db.ShiftReader, logger *zap.Logger, actor *model.Profile, filter db.ShiftFilter) ([]model.Shift, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, apperr.Validation("unknown shift status %q", st)
		}
	}
	if !filter.From.IsZero() && !filter.Until.IsZero() && !filter.Until.After(filter.From) {
		return nil, apperr.Validation("until must be after from")
	}

	if actor.Role == model.RoleStaff {
		if filter.StaffID != "" && filter.StaffID != actor.ID {
			return nil, apperr.Unauthorized(actor.ID, "list shifts of "+filter.StaffID)
		}
		filter.StaffID = actor.ID
	}

	shifts, err := store.ListShifts(ctx, filter)
	if err != nil {
		return nil, apperr.Store("list shifts", err)
	}

	// Per-shift policy as a final filter, so the list never shows more than ViewShift would.
	visible := shifts[:0]
	for i := range shifts {
		if policy.Authorize(actor, policy.ViewShift, &shifts[i]) == policy.Allow {
			visible = append(visible, shifts[i])
		}
	}

	logger.Debug("Listed shifts",
		zap.String("actor_id", actor.ID),
		zap.Int("count", len(visible)))
	return visible, nil
}

// ListAvailableStaff returns staff profiles that can currently be assigned
func ListAvailableStaff(ctx context.Context, store db.ProfileStore, logger *zap.Logger, actor *model.Profile) ([]model.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.AssignStaff, nil); err != nil {
		return nil, err
	}
	profiles, err := store.ListProfiles(ctx, db.ProfileFilter{Role: model.RoleStaff, AvailableOnly: true})
	if err != nil {
		return nil, apperr.Store("list available staff", err)
	}
	logger.Debug("Listed available staff", zap.Int("count", len(profiles)))
	return profiles, nil
}

// ListCareHomes returns every care home. Any authenticated profile may list them.
func ListCareHomes(ctx context.Context, store db.CareHomeStore, actor *model.Profile) ([]model.CareHome, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	homes, err := store.ListCareHomes(ctx)
	if err != nil {
		return nil, apperr.Store("list care homes", err)
	}
	return homes, nil
}

// GetProfile returns the profile with id. Staff may only read their own.
func GetProfile(ctx context.Context, store db.ProfileStore, actor *model.Profile, id string) (*model.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role == model.RoleStaff && actor.ID != id {
		return nil, apperr.Unauthorized(actor.ID, "view profile "+id)
	}
	p, err := store.GetProfile(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("profile", id)
	}
	if err != nil {
		return nil, apperr.Store("get profile "+id, err)
	}
	return p, nil
}
