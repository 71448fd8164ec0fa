package geo

import (
	"math"

	"github.com/escaduto/spotospot/internal/core/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm calculates the great-circle distance in kilometers between
// two points.
func DistanceKm(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// DistanceMeters is DistanceKm in meters.
func DistanceMeters(a, b domain.GeoPoint) float64 {
	return DistanceKm(a, b) * 1000
}

// BoundingBox returns a bounding box around a point with the given
// radius in meters.
func BoundingBox(center domain.GeoPoint, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / 111320.0
	lngDelta := radiusMeters / (111320.0 * math.Cos(toRad(center.Lat)))

	return domain.Bounds{
		MinLat: center.Lat - latDelta,
		MinLng: center.Lng - lngDelta,
		MaxLat: center.Lat + latDelta,
		MaxLng: center.Lng + lngDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
