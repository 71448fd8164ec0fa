package postgres

import (
	"context"

	"github.com/escaduto/spotospot/internal/core/domain"
)

// TripRepo implements ports.TripRepository.
type TripRepo struct {
	db *DB
}

func NewTripRepo(db *DB) *TripRepo {
	return &TripRepo{db: db}
}

func (r *TripRepo) GetTrip(ctx context.Context, id string) (*domain.Trip, error) {
	t := &domain.Trip{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, start_date, end_date, created_at
		FROM trips WHERE id = $1
	`, id).Scan(&t.ID, &t.UserID, &t.Name, &t.StartDate, &t.EndDate, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TripRepo) GetDay(ctx context.Context, id string) (*domain.TripDay, error) {
	d := &domain.TripDay{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, trip_id, day_index, COALESCE(notes, ''), created_at
		FROM trip_days WHERE id = $1
	`, id).Scan(&d.ID, &d.TripID, &d.DayIndex, &d.Notes, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *TripRepo) ListDays(ctx context.Context, tripID string) ([]domain.TripDay, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, trip_id, day_index, COALESCE(notes, ''), created_at
		FROM trip_days WHERE trip_id = $1 ORDER BY day_index
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.TripDay
	for rows.Next() {
		var d domain.TripDay
		if err := rows.Scan(&d.ID, &d.TripID, &d.DayIndex, &d.Notes, &d.CreatedAt); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
