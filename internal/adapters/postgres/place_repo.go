package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/pkg/geo"
	"github.com/escaduto/spotospot/internal/pkg/metrics"
)

const placeColumns = `
	id, name, COALESCE(category, ''), location::text, COALESCE(popularity, 0)`

func scanPlace(row pgx.Row) (*domain.SearchResult, error) {
	var res domain.SearchResult
	var loc *string
	if err := row.Scan(&res.ID, &res.Name, &res.Category, &loc, &res.PopularityScore); err != nil {
		return nil, err
	}
	res.SourceTable = "places"
	if loc != nil {
		if p, ok := geo.DecodePoint(*loc); ok {
			res.Geometry = &p
		} else {
			metrics.PointDecodeFailures.Inc()
		}
	}
	return &res, nil
}

func collectPlaces(rows pgx.Rows) ([]domain.SearchResult, error) {
	defer rows.Close()
	var results []domain.SearchResult
	for rows.Next() {
		res, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// IndexedPlaceSearcher answers spatial queries with PostGIS and trigram
// indexes. It is the fast path and the first link of the strategy chain.
type IndexedPlaceSearcher struct {
	db *DB
}

func NewIndexedPlaceSearcher(db *DB) *IndexedPlaceSearcher {
	return &IndexedPlaceSearcher{db: db}
}

func (r *IndexedPlaceSearcher) Name() string { return "indexed" }

func (r *IndexedPlaceSearcher) SearchText(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.SearchResult, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+placeColumns+`
		FROM places
		WHERE name_vector @@ plainto_tsquery('simple', $1)
		   OR name %> $1
		ORDER BY similarity(name, $1) DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	return collectPlaces(rows)
}

func (r *IndexedPlaceSearcher) SearchViewport(ctx context.Context, bounds domain.Bounds, limit int) ([]domain.SearchResult, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+placeColumns+`
		FROM places
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		ORDER BY popularity DESC
		LIMIT $5
	`, bounds.MinLng, bounds.MinLat, bounds.MaxLng, bounds.MaxLat, limit)
	if err != nil {
		return nil, err
	}
	return collectPlaces(rows)
}

// RPCPlaceSearcher calls a stored search function. Some deployments ship
// the indexes only inside this function, so it sits between the indexed
// predicate and the full scan in the chain.
type RPCPlaceSearcher struct {
	db *DB
}

func NewRPCPlaceSearcher(db *DB) *RPCPlaceSearcher {
	return &RPCPlaceSearcher{db: db}
}

func (r *RPCPlaceSearcher) Name() string { return "rpc" }

func (r *RPCPlaceSearcher) SearchText(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.SearchResult, error) {
	var lat, lng *float64
	if near != nil {
		lat, lng = &near.Lat, &near.Lng
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, category, location_hex, popularity
		FROM search_places($1, $2, $3, $4)
	`, query, lat, lng, limit)
	if err != nil {
		return nil, err
	}
	return collectPlaces(rows)
}

func (r *RPCPlaceSearcher) SearchViewport(ctx context.Context, bounds domain.Bounds, limit int) ([]domain.SearchResult, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, category, location_hex, popularity
		FROM search_places_in_bounds($1, $2, $3, $4, $5)
	`, bounds.MinLng, bounds.MinLat, bounds.MaxLng, bounds.MaxLat, limit)
	if err != nil {
		return nil, err
	}
	return collectPlaces(rows)
}

// scanFetchCap bounds the slow path. The fallback exists for deployments
// without the spatial indexes, not for large catalogs.
const scanFetchCap = 5000

// ScanPlaceSearcher is the last-resort strategy: fetch a capped slice of
// the catalog and filter client-side, decoding geometry from its hex
// wire form. Slow but index-free.
type ScanPlaceSearcher struct {
	db *DB
}

func NewScanPlaceSearcher(db *DB) *ScanPlaceSearcher {
	return &ScanPlaceSearcher{db: db}
}

func (r *ScanPlaceSearcher) Name() string { return "scan" }

func (r *ScanPlaceSearcher) SearchText(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.SearchResult, error) {
	all, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var results []domain.SearchResult
	for _, res := range all {
		if q != "" && !strings.Contains(strings.ToLower(res.Name), q) {
			continue
		}
		results = append(results, res)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (r *ScanPlaceSearcher) SearchViewport(ctx context.Context, bounds domain.Bounds, limit int) ([]domain.SearchResult, error) {
	all, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	var results []domain.SearchResult
	for _, res := range all {
		if res.Geometry == nil || !bounds.Contains(*res.Geometry) {
			continue
		}
		results = append(results, res)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (r *ScanPlaceSearcher) fetch(ctx context.Context) ([]domain.SearchResult, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+placeColumns+`
		FROM places
		ORDER BY popularity DESC
		LIMIT $1
	`, scanFetchCap)
	if err != nil {
		return nil, err
	}
	return collectPlaces(rows)
}
