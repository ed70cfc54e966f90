package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/policy"
	"github.com/jakechorley/care-shifts/pkg/db"
)

// EditProfile applies update to the profile owned by ownerID. Anyone may
// edit their own contact details and availability; changing a role needs
// the ChangeRole permission.
func EditProfile(ctx context.Context, store db.ProfileStore, logger *zap.Logger, actor *model.Profile, ownerID string, update model.ProfileUpdate) (*model.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, apperr.Validation("profile id is required")
	}

	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		update.FullName = &name
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		update.Email = &email
	}
	if update.Phone != nil {
		phone := strings.TrimSpace(*update.Phone)
		update.Phone = &phone
	}

	if update.FullName == nil && update.Email == nil && update.Phone == nil && update.IsAvailable == nil && update.Role == nil {
		return nil, apperr.Validation("nothing to update")
	}

	if update.FullName != nil || update.Email != nil || update.Phone != nil || update.IsAvailable != nil {
		if err := authorize(actor, policy.EditProfile(ownerID), nil); err != nil {
			return nil, err
		}
	}
	if update.Role != nil {
		if !update.Role.IsValid() {
			return nil, apperr.Validation("unknown role %q", *update.Role)
		}
		if err := authorize(actor, policy.ChangeRole(ownerID), nil); err != nil {
			return nil, err
		}
	}

	if err := validate.Struct(update); err != nil {
		return nil, validationErr(err)
	}

	logger.Debug("Updating profile", zap.String("profile_id", ownerID), zap.String("actor_id", actor.ID))
	updated, err := store.UpdateProfile(ctx, ownerID, update)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("profile", ownerID)
	}
	if errors.Is(err, db.ErrUniqueViolation) {
		return nil, apperr.ErrUniqueViolation
	}
	if err != nil {
		return nil, apperr.Store("update profile "+ownerID, err)
	}

	fields := []zap.Field{zap.String("profile_id", ownerID)}
	if update.Role != nil {
		fields = append(fields, zap.String("role", string(updated.Role)))
	}
	logger.Info("Profile updated", fields...)
	return updated, nil
}
