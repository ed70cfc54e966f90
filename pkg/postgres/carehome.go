package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

const careHomeColumns = `id, name, address, latitude, longitude, geofence_radius, created_at, updated_at`

func scanCareHome(row pgx.Row) (*model.CareHome, error) {
	var h model.CareHome
	if err := row.Scan(&h.ID, &h.Name, &h.Address, &h.Latitude, &h.Longitude, &h.GeofenceRadius, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetCareHome retrieves a care home by id
func (d *DB) GetCareHome(ctx context.Context, id string) (*model.CareHome, error) {
	h, err := scanCareHome(d.pool.QueryRow(ctx, `SELECT `+careHomeColumns+` FROM care_homes WHERE id = $1`, id))
	if err != nil {
		return nil, translateErr(err)
	}
	return h, nil
}

// ListCareHomes returns all care homes ordered by name
func (d *DB) ListCareHomes(ctx context.Context) ([]model.CareHome, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+careHomeColumns+` FROM care_homes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query care homes: %w", err)
	}
	defer rows.Close()

	var homes []model.CareHome
	for rows.Next() {
		h, err := scanCareHome(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan care home: %w", err)
		}
		homes = append(homes, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating care homes: %w", err)
	}
	return homes, nil
}

// InsertCareHome inserts a new care home record
func (d *DB) InsertCareHome(ctx context.Context, home *model.CareHome) (*model.CareHome, error) {
	h, err := scanCareHome(d.pool.QueryRow(ctx, `
		INSERT INTO care_homes (id, name, address, latitude, longitude, geofence_radius)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+careHomeColumns,
		home.ID, home.Name, home.Address, home.Latitude, home.Longitude, home.GeofenceRadius))
	if err != nil {
		return nil, translateErr(err)
	}
	return h, nil
}
