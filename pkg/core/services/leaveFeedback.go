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

// FeedbackStore defines the database operations needed for shift feedback
type FeedbackStore interface {
	db.ShiftReader
	db.FeedbackStore
}

type feedbackInput struct {
	Rating  int    `validate:"gte=1,lte=5"`
	Comment string `validate:"max=2000"`
}

// LeaveFeedback records a manager's rating of a completed shift. A shift
// takes at most one feedback record.
func LeaveFeedback(ctx context.Context, store FeedbackStore, logger *zap.Logger, actor *model.Profile, shiftID string, rating int, comment string) (*model.ShiftFeedback, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	shift, err := loadShift(ctx, store, shiftID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.LeaveFeedback, shift); err != nil {
		return nil, err
	}
	if shift.Status != model.StatusCompleted {
		return nil, apperr.Validation("feedback can only be left on a completed shift, shift %s is %s", shift.ID, shift.Status)
	}

	in := feedbackInput{Rating: rating, Comment: strings.TrimSpace(comment)}
	if err := validate.Struct(in); err != nil {
		return nil, validationErr(err)
	}

	feedback := &model.ShiftFeedback{
		ID:        uuid.New().String(),
		ShiftID:   shift.ID,
		ManagerID: actor.ID,
		Rating:    in.Rating,
	}
	if in.Comment != "" {
		feedback.Comment = &in.Comment
	}

	created, err := store.InsertFeedback(ctx, feedback)
	if errors.Is(err, db.ErrUniqueViolation) {
		return nil, apperr.Validation("feedback already recorded for shift %s", shift.ID)
	}
	if err != nil {
		return nil, apperr.Store("insert feedback for shift "+shift.ID, err)
	}

	logger.Info("Feedback recorded",
		zap.String("shift_id", shift.ID),
		zap.String("manager_id", actor.ID),
		zap.Int("rating", created.Rating))
	return created, nil
}

// ListFeedback returns the feedback on a shift the actor may view
func ListFeedback(ctx context.Context, store FeedbackStore, actor *model.Profile, shiftID string) ([]model.ShiftFeedback, error) {
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
	feedback, err := store.ListFeedbackForShift(ctx, shift.ID)
	if err != nil {
		return nil, apperr.Store("list feedback for shift "+shift.ID, err)
	}
	return feedback, nil
}
