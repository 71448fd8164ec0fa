package geo_test

import (
	"math"
	"testing"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/pkg/geo"
)

func TestMidpoint_TwoPointLine(t *testing.T) {
	line := []domain.GeoPoint{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 0}}

	mid, ok := geo.Midpoint(line)
	if !ok {
		t.Fatal("expected midpoint")
	}
	if math.Abs(mid.Lat-1) > 1e-9 || math.Abs(mid.Lng) > 1e-9 {
		t.Errorf("expected (1, 0), got (%v, %v)", mid.Lat, mid.Lng)
	}
}

func TestMidpoint_UnevenSegments(t *testing.T) {
	// Segment lengths 1 and 3; half of 4 falls 1 unit into the second.
	line := []domain.GeoPoint{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 4, Lng: 0}}

	mid, ok := geo.Midpoint(line)
	if !ok {
		t.Fatal("expected midpoint")
	}
	if math.Abs(mid.Lat-2) > 1e-9 {
		t.Errorf("expected lat 2, got %v", mid.Lat)
	}
}

func TestMidpoint_SinglePoint(t *testing.T) {
	p := domain.GeoPoint{Lat: 43.263, Lng: -2.935}
	mid, ok := geo.Midpoint([]domain.GeoPoint{p})
	if !ok || mid != p {
		t.Errorf("single point should return itself, got %+v ok=%v", mid, ok)
	}
}

func TestMidpoint_DegeneratePolyline(t *testing.T) {
	p := domain.GeoPoint{Lat: 1, Lng: 1}
	mid, ok := geo.Midpoint([]domain.GeoPoint{p, p, p})
	if !ok || mid != p {
		t.Errorf("coincident points should return the last point, got %+v ok=%v", mid, ok)
	}
}

func TestMidpoint_Empty(t *testing.T) {
	if _, ok := geo.Midpoint(nil); ok {
		t.Error("empty polyline should report no midpoint")
	}
}

func TestMidpoint_SkipsZeroLengthSegments(t *testing.T) {
	line := []domain.GeoPoint{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0}, // duplicate vertex
		{Lat: 2, Lng: 0},
	}
	mid, ok := geo.Midpoint(line)
	if !ok {
		t.Fatal("expected midpoint")
	}
	if math.Abs(mid.Lat-1) > 1e-9 {
		t.Errorf("expected lat 1, got %v", mid.Lat)
	}
}
