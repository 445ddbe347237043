package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
)

// LandRegistrationRepo implements ports.LandRegistrationRepository.
type LandRegistrationRepo struct {
	db *DB
}

var _ ports.LandRegistrationRepository = (*LandRegistrationRepo)(nil)

func NewLandRegistrationRepo(db *DB) *LandRegistrationRepo {
	return &LandRegistrationRepo{db: db}
}

func (r *LandRegistrationRepo) Insert(ctx context.Context, reg *domain.LandRegistration) error {
	polygon, err := json.Marshal(reg.Polygon)
	if err != nil {
		return fmt.Errorf("encode polygon: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO land_registrations
			(id, capture_id, user_id, land_id, polygon_id, area_sq_m,
			 centroid_lon, centroid_lat, country, country_status, polygon, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, reg.ID, reg.CaptureID, reg.UserID, reg.LandID, reg.PolygonID, reg.Area,
		reg.Centroid.Lon, reg.Centroid.Lat, reg.Country, string(reg.CountryStatus), polygon, reg.RegisteredAt)
	return err
}

func (r *LandRegistrationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.LandRegistration, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, capture_id, user_id, land_id, COALESCE(polygon_id, ''), area_sq_m,
		       centroid_lon, centroid_lat, country, country_status, polygon, registered_at
		FROM land_registrations
		WHERE user_id = $1
		ORDER BY registered_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []domain.LandRegistration
	for rows.Next() {
		var (
			reg     domain.LandRegistration
			status  string
			polygon []byte
		)
		if err := rows.Scan(&reg.ID, &reg.CaptureID, &reg.UserID, &reg.LandID, &reg.PolygonID, &reg.Area,
			&reg.Centroid.Lon, &reg.Centroid.Lat, &reg.Country, &status, &polygon, &reg.RegisteredAt); err != nil {
			return nil, err
		}
		reg.CountryStatus = domain.CountryStatus(status)
		if err := json.Unmarshal(polygon, &reg.Polygon); err != nil {
			return nil, fmt.Errorf("decode polygon of %s: %w", reg.ID, err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
