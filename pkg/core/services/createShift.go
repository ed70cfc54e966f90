package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/overlap"
	"github.com/jakechorley/care-shifts/pkg/core/policy"
	"github.com/jakechorley/care-shifts/pkg/core/shiftstate"
	"github.com/jakechorley/care-shifts/pkg/db"
	"github.com/jakechorley/care-shifts/pkg/utils/clock"
)

// eventCreate labels shift creation in logs and metrics
const eventCreate shiftstate.Event = "create"

// CreateShiftRequest describes a new shift. StaffID is optional; when set the
// shift starts out assigned.
type CreateShiftRequest struct {
	CareHomeID     string    `validate:"required"`
	StaffID        string    `validate:"omitempty"`
	StartTime      time.Time `validate:"required"`
	EndTime        time.Time `validate:"required,gtfield=StartTime"`
	IdempotencyKey string    `validate:"omitempty,max=200"`
}

// CreateShiftStore defines the database operations needed to create shifts
type CreateShiftStore interface {
	db.ShiftStore
	db.ProfileStore
	db.CareHomeStore
}

// CreateShift creates a shift at a care home. A request carrying an
// idempotency key that was already used returns the shift created the first
// time instead of creating another.
func CreateShift(ctx context.Context, store CreateShiftStore, clk clock.Clock, logger *zap.Logger, actor *model.Profile, req CreateShiftRequest) (shift *model.Shift, err error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	defer func() {
		id := ""
		if shift != nil {
			id = shift.ID
		}
		observe(logger, eventCreate, id, err)
	}()

	req.CareHomeID = strings.TrimSpace(req.CareHomeID)
	req.StaffID = strings.TrimSpace(req.StaffID)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	if err := authorize(actor, policy.CreateShift, nil); err != nil {
		return nil, err
	}
	if req.StaffID != "" {
		if err := authorize(actor, policy.AssignStaff, nil); err != nil {
			return nil, err
		}
	}

	if err := validate.Struct(req); err != nil {
		return nil, validationErr(err)
	}
	if err := overlap.ValidateInterval(req.StartTime, req.EndTime, clk.Now()); err != nil {
		return nil, err
	}

	logger.Debug("Creating shift",
		zap.String("care_home_id", req.CareHomeID),
		zap.String("staff_id", req.StaffID),
		zap.Time("start_time", req.StartTime),
		zap.Time("end_time", req.EndTime))

	if req.IdempotencyKey != "" {
		existing, err := findByIdempotencyKey(ctx, store, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			logger.Info("Shift already created for idempotency key",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("shift_id", existing.ID))
			return existing, nil
		}
	}

	if _, err := store.GetCareHome(ctx, req.CareHomeID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("care home", req.CareHomeID)
		}
		return nil, apperr.Store("get care home "+req.CareHomeID, err)
	}

	candidate := &model.Shift{
		ID:         uuid.New().String(),
		CareHomeID: req.CareHomeID,
		Status:     shiftstate.InitialStatus(req.StaffID),
		StartTime:  req.StartTime.UTC(),
		EndTime:    req.EndTime.UTC(),
	}
	if req.IdempotencyKey != "" {
		candidate.IdempotencyKey = &req.IdempotencyKey
	}

	if req.StaffID == "" {
		shift, err = insertShift(ctx, store, candidate)
	} else {
		if _, err := checkAssignee(ctx, store, req.StaffID); err != nil {
			return nil, err
		}
		candidate.StaffID = &req.StaffID
		err = store.RunForStaff(ctx, req.StaffID, func(tx db.ShiftTx) error {
			// A retry that waited on the lock must not see its own first attempt as a conflict.
			if req.IdempotencyKey != "" {
				existing, err := findByIdempotencyKey(ctx, tx, req.IdempotencyKey)
				if err != nil {
					return err
				}
				if existing != nil {
					shift = existing
					return nil
				}
			}
			if err := overlap.Require(ctx, tx, req.StaffID, candidate.StartTime, candidate.EndTime, ""); err != nil {
				return err
			}
			var ierr error
			shift, ierr = insertShift(ctx, tx, candidate)
			return ierr
		})
	}

	if err != nil && errors.Is(err, apperr.ErrUniqueViolation) && req.IdempotencyKey != "" {
		// A concurrent retry with the same key got there first.
		existing, ferr := findByIdempotencyKey(ctx, store, req.IdempotencyKey)
		if ferr == nil && existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, wrapStore("create shift", err)
	}

	logger.Info("Shift created",
		zap.String("shift_id", shift.ID),
		zap.String("status", string(shift.Status)),
		zap.String("care_home_id", shift.CareHomeID))
	return shift, nil
}

func insertShift(ctx context.Context, store db.ShiftWriter, shift *model.Shift) (*model.Shift, error) {
	inserted, err := store.InsertShift(ctx, shift)
	if errors.Is(err, db.ErrUniqueViolation) {
		return nil, apperr.ErrUniqueViolation
	}
	if err != nil {
		return nil, apperr.Store("insert shift", err)
	}
	return inserted, nil
}

func findByIdempotencyKey(ctx context.Context, store db.ShiftReader, key string) (*model.Shift, error) {
	existing, err := store.GetShiftByIdempotencyKey(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("look up idempotency key", err)
	}
	return existing, nil
}
