package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

// SeedStore is the part of a Database that fixtures are written to
type SeedStore interface {
	ProfileStore
	CareHomeStore
}

// Seed inserts fixture profiles and care homes, skipping ids that already exist.
// It returns how many records were inserted.
func Seed(ctx context.Context, store SeedStore, profiles []model.Profile, homes []model.CareHome) (int, error) {
	inserted := 0
	for i := range profiles {
		_, err := store.InsertProfile(ctx, &profiles[i])
		if errors.Is(err, ErrUniqueViolation) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to seed profile %s: %w", profiles[i].ID, err)
		}
		inserted++
	}
	for i := range homes {
		_, err := store.InsertCareHome(ctx, &homes[i])
		if errors.Is(err, ErrUniqueViolation) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to seed care home %s: %w", homes[i].ID, err)
		}
		inserted++
	}
	return inserted, nil
}
