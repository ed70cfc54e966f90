package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/db"
)

const profileColumns = `id, role, full_name, email, phone, is_available, created_at, updated_at`

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	var role string
	if err := row.Scan(&p.ID, &role, &p.FullName, &p.Email, &p.Phone, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	p.Role = r
	return &p, nil
}

// GetProfile retrieves a profile by id
func (d *DB) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	p, err := scanProfile(d.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return nil, translateErr(err)
	}
	return p, nil
}

// InsertProfile inserts a new profile, failing with db.ErrUniqueViolation if the id is taken
func (d *DB) InsertProfile(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	if !profile.Role.IsValid() {
		return nil, fmt.Errorf("failed to insert profile: unknown role %q", profile.Role)
	}
	p, err := scanProfile(d.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, role, full_name, email, phone, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+profileColumns,
		profile.ID, string(profile.Role), profile.FullName, profile.Email, profile.Phone, profile.IsAvailable))
	if err != nil {
		return nil, translateErr(err)
	}
	return p, nil
}

// UpdateProfile applies update to the profile with the given id
func (d *DB) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.Profile, error) {
	args := []any{id}
	sets := []string{"updated_at = NOW()"}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if update.FullName != nil {
		set("full_name", *update.FullName)
	}
	if update.Email != nil {
		set("email", *update.Email)
	}
	if update.Phone != nil {
		if *update.Phone == "" {
			set("phone", nil)
		} else {
			set("phone", *update.Phone)
		}
	}
	if update.IsAvailable != nil {
		set("is_available", *update.IsAvailable)
	}
	if update.Role != nil {
		if !update.Role.IsValid() {
			return nil, fmt.Errorf("failed to update profile: unknown role %q", *update.Role)
		}
		set("role", string(*update.Role))
	}

	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $1 RETURNING %s`, strings.Join(sets, ", "), profileColumns)
	p, err := scanProfile(d.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translateErr(err)
	}
	return p, nil
}

// ListProfiles returns profiles matching filter, ordered by full name
func (d *DB) ListProfiles(ctx context.Context, filter db.ProfileFilter) ([]model.Profile, error) {
	var where []string
	var args []any
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.AvailableOnly {
		where = append(where, "is_available")
	}

	query := `SELECT ` + profileColumns + ` FROM profiles`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY full_name`

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}
