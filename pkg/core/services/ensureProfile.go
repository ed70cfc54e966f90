package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/db"
	"github.com/jakechorley/care-shifts/pkg/utils/metrics"
)

// EnsureProfile returns the profile for an authenticated identity, creating a
// staff profile on first login. Two callers racing to create the same profile
// both get the row that won; the losing insert's unique violation is not an error.
func EnsureProfile(ctx context.Context, store db.ProfileStore, logger *zap.Logger, identity model.Identity) (*model.Profile, error) {
	id := strings.TrimSpace(identity.ID)
	email := normalizeEmail(identity.Email)
	if id == "" {
		return nil, apperr.Validation("identity id is required")
	}
	if email == "" {
		return nil, apperr.Validation("identity email is required")
	}

	logger.Debug("Looking up profile", zap.String("profile_id", id))
	profile, err := store.GetProfile(ctx, id)
	if err == nil {
		metrics.ObserveBootstrap(metrics.BootstrapExisting)
		return profile, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		metrics.ObserveBootstrap(metrics.BootstrapFailed)
		return nil, apperr.Store("get profile "+id, err)
	}

	candidate := &model.Profile{
		ID:          id,
		Role:        model.RoleStaff,
		FullName:    nameFromEmail(email),
		Email:       email,
		IsAvailable: true,
	}

	logger.Debug("No profile found, creating one", zap.String("profile_id", id), zap.String("email", email))
	created, err := store.InsertProfile(ctx, candidate)
	if err == nil {
		metrics.ObserveBootstrap(metrics.BootstrapCreated)
		logger.Info("Created profile", zap.String("profile_id", id), zap.String("role", string(created.Role)))
		return created, nil
	}
	if !errors.Is(err, db.ErrUniqueViolation) {
		metrics.ObserveBootstrap(metrics.BootstrapFailed)
		return nil, apperr.Store("insert profile "+id, err)
	}

	// Someone else created it between our read and insert.
	logger.Debug("Profile created concurrently, re-reading", zap.String("profile_id", id))
	profile, err = store.GetProfile(ctx, id)
	if err != nil {
		metrics.ObserveBootstrap(metrics.BootstrapFailed)
		return nil, apperr.Store("re-read profile "+id, err)
	}
	metrics.ObserveBootstrap(metrics.BootstrapRecovered)
	return profile, nil
}

// nameFromEmail derives a display name from the local part of an address
func nameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	return local
}
