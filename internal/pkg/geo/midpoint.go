package geo

import (
	"math"

	"github.com/escaduto/spotospot/internal/core/domain"
)

// Midpoint returns the point halfway along the polyline by accumulated
// segment length, interpolated within the straddling segment. Plain
// coordinate-space Euclidean lengths are used; at city scale the error
// against geodesic arc length is invisible for badge placement, and the
// index-based "middle vertex" shortcut is visibly wrong for the common
// two-point case (flights, ferries), which has no middle vertex at all.
//
// ok is false only for an empty polyline. A single point returns
// itself; a polyline of coincident points returns the last point.
func Midpoint(line []domain.GeoPoint) (domain.GeoPoint, bool) {
	if len(line) == 0 {
		return domain.GeoPoint{}, false
	}
	if len(line) == 1 {
		return line[0], true
	}

	segs := make([]float64, len(line)-1)
	total := 0.0
	for i := 0; i < len(line)-1; i++ {
		dLat := line[i+1].Lat - line[i].Lat
		dLng := line[i+1].Lng - line[i].Lng
		segs[i] = math.Hypot(dLat, dLng)
		total += segs[i]
	}
	if total == 0 {
		return line[len(line)-1], true
	}

	half := total / 2
	acc := 0.0
	for i, seg := range segs {
		if seg == 0 {
			continue
		}
		if acc+seg >= half {
			frac := (half - acc) / seg
			return domain.GeoPoint{
				Lat: line[i].Lat + (line[i+1].Lat-line[i].Lat)*frac,
				Lng: line[i].Lng + (line[i+1].Lng-line[i].Lng)*frac,
			}, true
		}
		acc += seg
	}
	return line[len(line)-1], true
}
