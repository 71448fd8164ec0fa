package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/pkg/geo"
	"github.com/escaduto/spotospot/internal/pkg/metrics"
)

// ActivityRepo implements ports.ActivityRepository. The location column
// is a PostGIS geometry; it travels as hex EWKB text and is decoded at
// this boundary so the core only ever sees GeoPoint.
type ActivityRepo struct {
	db *DB
}

func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

const activityColumns = `
	id, day_id, order_index, location::text,
	display_label, type, duration_minutes, COALESCE(time_window, ''),
	COALESCE(metadata, '{}'), created_at`

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var a domain.Activity
	var loc *string
	if err := row.Scan(
		&a.ID, &a.DayID, &a.OrderIndex, &loc,
		&a.DisplayLabel, &a.Type, &a.DurationMinutes, &a.TimeWindow,
		&a.Metadata, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if loc != nil {
		if p, ok := geo.DecodePoint(*loc); ok {
			a.Geometry = &p
		} else {
			metrics.PointDecodeFailures.Inc()
		}
	}
	return &a, nil
}

func (r *ActivityRepo) ListByDay(ctx context.Context, dayID string) ([]domain.Activity, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activities WHERE day_id = $1 ORDER BY order_index
	`, dayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (r *ActivityRepo) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+activityColumns+`
		FROM activities WHERE id = $1
	`, id)
	return scanActivity(row)
}

func (r *ActivityRepo) Insert(ctx context.Context, a *domain.Activity) error {
	var loc *string
	if a.Geometry != nil {
		hex := geo.EncodePointEWKB(*a.Geometry)
		loc = &hex
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO activities (day_id, order_index, location, display_label, type, duration_minutes, time_window, metadata)
		VALUES ($1, $2, $3::geometry, $4, $5, $6, NULLIF($7, ''), $8)
		RETURNING id, created_at
	`, a.DayID, a.OrderIndex, loc, a.DisplayLabel, a.Type,
		a.DurationMinutes, a.TimeWindow, a.Metadata,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *ActivityRepo) UpdateGeometry(ctx context.Context, id string, p domain.GeoPoint) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE activities SET location = $2::geometry WHERE id = $1
	`, id, geo.EncodePointEWKB(p))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("activity %s not found", id)
	}
	return nil
}

// UpdateOrder rewrites order_index for a day's activities in one batch.
func (r *ActivityRepo) UpdateOrder(ctx context.Context, dayID string, orderedIDs []string) error {
	batch := &pgx.Batch{}
	for i, id := range orderedIDs {
		batch.Queue(`
			UPDATE activities SET order_index = $3
			WHERE id = $1 AND day_id = $2
		`, id, dayID, i)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range orderedIDs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// ReplacePlace swaps the place behind an activity, keeping its slot.
func (r *ActivityRepo) ReplacePlace(ctx context.Context, id string, res *domain.SearchResult) error {
	var loc *string
	if res.Geometry != nil {
		hex := geo.EncodePointEWKB(*res.Geometry)
		loc = &hex
	}
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE activities
		SET display_label = $2,
		    location = $3::geometry,
		    metadata = COALESCE(metadata, '{}') || jsonb_build_object('source_table', $4::text, 'source_id', $5::text)
		WHERE id = $1
	`, id, res.Name, loc, res.SourceTable, res.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("activity %s not found", id)
	}
	return nil
}
