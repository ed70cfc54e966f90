package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

const feedbackColumns = `id, shift_id, manager_id, rating, comment, created_at`

func scanFeedback(row pgx.Row) (*model.ShiftFeedback, error) {
	var f model.ShiftFeedback
	if err := row.Scan(&f.ID, &f.ShiftID, &f.ManagerID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// InsertFeedback inserts a feedback record; a second record for one shift is a unique violation
func (d *DB) InsertFeedback(ctx context.Context, feedback *model.ShiftFeedback) (*model.ShiftFeedback, error) {
	f, err := scanFeedback(d.pool.QueryRow(ctx, `
		INSERT INTO shift_feedback (id, shift_id, manager_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+feedbackColumns,
		feedback.ID, feedback.ShiftID, feedback.ManagerID, feedback.Rating, feedback.Comment))
	if err != nil {
		return nil, translateErr(err)
	}
	return f, nil
}

// ListFeedbackForShift returns the feedback recorded against shiftID
func (d *DB) ListFeedbackForShift(ctx context.Context, shiftID string) ([]model.ShiftFeedback, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+feedbackColumns+` FROM shift_feedback WHERE shift_id = $1 ORDER BY created_at`, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift feedback: %w", err)
	}
	defer rows.Close()

	var out []model.ShiftFeedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift feedback: %w", err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift feedback: %w", err)
	}
	return out, nil
}
