package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/escaduto/spotospot/internal/core/domain"
)

// RouteLegRepo implements ports.RouteLegRepository. Polylines are stored
// as jsonb arrays of [lng, lat] pairs; legs themselves are computed
// upstream, so this repo only reads them and updates transport types.
type RouteLegRepo struct {
	db *DB
}

func NewRouteLegRepo(db *DB) *RouteLegRepo {
	return &RouteLegRepo{db: db}
}

func scanLeg(row pgx.Row) (*domain.RouteLeg, error) {
	var l domain.RouteLeg
	var polyline []byte
	if err := row.Scan(
		&l.ID, &l.DayID, &l.FromActivityID, &l.ToActivityID,
		&polyline, &l.DistanceMeters, &l.DurationSec, &l.TransportTypes, &l.CreatedAt,
	); err != nil {
		return nil, err
	}
	var pairs [][]float64
	if err := json.Unmarshal(polyline, &pairs); err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		l.Polyline = append(l.Polyline, domain.GeoPoint{Lng: p[0], Lat: p[1]})
	}
	return &l, nil
}

const legColumns = `
	id, day_id, from_activity_id, to_activity_id,
	COALESCE(polyline, '[]'), distance_meters, duration_sec, transport_types, created_at`

func (r *RouteLegRepo) ListByDay(ctx context.Context, dayID string) ([]domain.RouteLeg, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+legColumns+`
		FROM route_legs WHERE day_id = $1 ORDER BY created_at
	`, dayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var legs []domain.RouteLeg
	for rows.Next() {
		l, err := scanLeg(rows)
		if err != nil {
			return nil, err
		}
		legs = append(legs, *l)
	}
	return legs, rows.Err()
}

func (r *RouteLegRepo) GetByID(ctx context.Context, id string) (*domain.RouteLeg, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+legColumns+`
		FROM route_legs WHERE id = $1
	`, id)
	return scanLeg(row)
}

func (r *RouteLegRepo) UpdateTransportTypes(ctx context.Context, ids []string, types []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE route_legs SET transport_types = $2 WHERE id = ANY($1)
	`, ids, types)
	return err
}
