package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/db"
)

const shiftColumns = `id, care_home_id, staff_id, status, start_time, end_time,
	check_in_time, check_out_time, cancelled_at, cancelled_by, idempotency_key, created_at, updated_at`

// shiftQueries runs shift statements against a pool or a transaction
type shiftQueries struct {
	q querier
}

var _ db.ShiftTx = shiftQueries{}

func scanShift(row pgx.Row) (*model.Shift, error) {
	var s model.Shift
	var status string
	err := row.Scan(&s.ID, &s.CareHomeID, &s.StaffID, &status, &s.StartTime, &s.EndTime,
		&s.CheckInTime, &s.CheckOutTime, &s.CancelledAt, &s.CancelledBy, &s.IdempotencyKey,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status, err = model.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("shift %s: %w", s.ID, err)
	}
	return &s, nil
}

func collectShifts(rows pgx.Rows) ([]model.Shift, error) {
	defer rows.Close()

	var shifts []model.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}
	return shifts, nil
}

// GetShift retrieves a shift by id
func (sq shiftQueries) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	s, err := scanShift(sq.q.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id))
	if err != nil {
		return nil, translateErr(err)
	}
	return s, nil
}

// GetShiftByIdempotencyKey retrieves the shift created with key
func (sq shiftQueries) GetShiftByIdempotencyKey(ctx context.Context, key string) (*model.Shift, error) {
	s, err := scanShift(sq.q.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE idempotency_key = $1`, key))
	if err != nil {
		return nil, translateErr(err)
	}
	return s, nil
}

// ListShiftsForStaff returns staffID's shifts whose status is in statuses
func (sq shiftQueries) ListShiftsForStaff(ctx context.Context, staffID string, statuses []model.ShiftStatus) ([]model.Shift, error) {
	return sq.ListShifts(ctx, db.ShiftFilter{StaffID: staffID, Statuses: statuses})
}

// ListShifts returns shifts matching filter, ordered by start time
func (sq shiftQueries) ListShifts(ctx context.Context, filter db.ShiftFilter) ([]model.Shift, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.StaffID != "" {
		add("staff_id = $%d", filter.StaffID)
	}
	if filter.CareHomeID != "" {
		add("care_home_id = $%d", filter.CareHomeID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", statuses)
	}
	if !filter.From.IsZero() {
		add("end_time > $%d", filter.From.UTC())
	}
	if !filter.Until.IsZero() {
		add("start_time < $%d", filter.Until.UTC())
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_time, id`

	rows, err := sq.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	return collectShifts(rows)
}

// InsertShift inserts a new shift record
func (sq shiftQueries) InsertShift(ctx context.Context, shift *model.Shift) (*model.Shift, error) {
	if !shift.Status.IsValid() {
		return nil, fmt.Errorf("failed to insert shift: unknown status %q", shift.Status)
	}
	s, err := scanShift(sq.q.QueryRow(ctx, `
		INSERT INTO shifts (id, care_home_id, staff_id, status, start_time, end_time, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+shiftColumns,
		shift.ID, shift.CareHomeID, shift.StaffID, string(shift.Status),
		shift.StartTime.UTC(), shift.EndTime.UTC(), shift.IdempotencyKey))
	if err != nil {
		return nil, translateErr(err)
	}
	return s, nil
}

// UpdateShift applies update to the shift if its status and interval still
// match expected
func (sq shiftQueries) UpdateShift(ctx context.Context, id string, expected model.ShiftGuard, update model.ShiftUpdate) (*model.Shift, error) {
	args := []any{id, string(expected.Status), expected.StartTime.UTC(), expected.EndTime.UTC()}
	sets := []string{"updated_at = NOW()"}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if update.Status != nil {
		set("status", string(*update.Status))
	}
	if update.StaffID != nil {
		set("staff_id", *update.StaffID)
	}
	if update.StartTime != nil {
		set("start_time", update.StartTime.UTC())
	}
	if update.EndTime != nil {
		set("end_time", update.EndTime.UTC())
	}
	if update.CheckInTime != nil {
		set("check_in_time", update.CheckInTime.UTC())
	}
	if update.CheckOutTime != nil {
		set("check_out_time", update.CheckOutTime.UTC())
	}
	if update.CancelledAt != nil {
		set("cancelled_at", update.CancelledAt.UTC())
	}
	if update.CancelledBy != nil {
		set("cancelled_by", *update.CancelledBy)
	}

	query := fmt.Sprintf(`UPDATE shifts SET %s WHERE id = $1 AND status = $2 AND start_time = $3 AND end_time = $4 RETURNING %s`,
		strings.Join(sets, ", "), shiftColumns)
	s, err := scanShift(sq.q.QueryRow(ctx, query, args...))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, translateErr(err)
	}

	// Nothing matched: either the shift is gone or another writer moved it on.
	var exists bool
	if err := sq.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shifts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check shift existence: %w", err)
	}
	if !exists {
		return nil, db.ErrNotFound
	}
	return nil, db.ErrStaleWrite
}
