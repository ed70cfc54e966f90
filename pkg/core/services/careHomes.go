package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/policy"
	"github.com/jakechorley/care-shifts/pkg/db"
)

// AddCareHomeRequest describes a care home to register
type AddCareHomeRequest struct {
	Name           string  `validate:"required,max=200"`
	Address        string  `validate:"required,max=500"`
	Latitude       float64 `validate:"latitude"`
	Longitude      float64 `validate:"longitude"`
	GeofenceRadius int     `validate:"gte=0,lte=10000"`
}

// AddCareHome registers a new care home
func AddCareHome(ctx context.Context, store db.CareHomeStore, logger *zap.Logger, actor *model.Profile, req AddCareHomeRequest) (*model.CareHome, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.AddCareHome, nil); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if err := validate.Struct(req); err != nil {
		return nil, validationErr(err)
	}

	home, err := store.InsertCareHome(ctx, &model.CareHome{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		GeofenceRadius: req.GeofenceRadius,
	})
	if errors.Is(err, db.ErrUniqueViolation) {
		return nil, apperr.ErrUniqueViolation
	}
	if err != nil {
		return nil, apperr.Store("insert care home", err)
	}

	logger.Info("Care home added", zap.String("care_home_id", home.ID), zap.String("name", home.Name))
	return home, nil
}
