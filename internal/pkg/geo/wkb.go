package geo

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/escaduto/spotospot/internal/core/domain"
)

// Geometry columns travel over the wire exactly as the database encodes
// them: a hex-text EWKB/WKB point. The two hex variants are told apart
// by exact string length, so length is checked before the type prefix;
// a truncated or padded string must fall through, never mis-decode.
const (
	ewkbPointHexLen = 50 // 01 + type(4) + SRID(4) + lng(8) + lat(8) bytes
	wkbPointHexLen  = 42 // 01 + type(4) + lng(8) + lat(8) bytes

	ewkbPointPrefix = "0101000020" // little-endian point with SRID
	wkbPointPrefix  = "0101000000" // little-endian plain point

	ewkbLngOffset = 18
	ewkbLatOffset = 34
	wkbLngOffset  = 10
	wkbLatOffset  = 26

	srid4326Hex = "E6100000"
)

var wktPointRe = regexp.MustCompile(
	`(?i)^\s*POINT\s*\(\s*(-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)\s+(-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)\s*\)\s*$`)

// DecodePoint converts any of the wire forms a geometry value shows up
// in (EWKB/WKB hex text, WKT, a [lng, lat] array, a GeoJSON point
// object, or an already-shaped {lat, lng} map) into a canonical
// GeoPoint. It never panics; any malformed input yields ok=false.
func DecodePoint(raw any) (domain.GeoPoint, bool) {
	switch v := raw.(type) {
	case string:
		return decodeString(v)
	case []float64:
		if len(v) == 2 {
			return checkPoint(v[1], v[0])
		}
	case []any:
		if len(v) == 2 {
			lng, okLng := toFloat(v[0])
			lat, okLat := toFloat(v[1])
			if okLng && okLat {
				return checkPoint(lat, lng)
			}
		}
	case map[string]any:
		return decodeObject(v)
	case domain.GeoPoint:
		return checkPoint(v.Lat, v.Lng)
	case *domain.GeoPoint:
		if v != nil {
			return checkPoint(v.Lat, v.Lng)
		}
	}
	return domain.GeoPoint{}, false
}

// EncodePointEWKB is the exact inverse of the EWKB decode path: it emits
// the canonical 50-character uppercase hex form with SRID 4326, the same
// layout the database writes.
func EncodePointEWKB(p domain.GeoPoint) string {
	buf := make([]byte, 25)
	buf[0] = 0x01 // little-endian
	binary.LittleEndian.PutUint32(buf[1:5], 0x20000001)
	binary.LittleEndian.PutUint32(buf[5:9], 4326)
	binary.LittleEndian.PutUint64(buf[9:17], math.Float64bits(p.Lng))
	binary.LittleEndian.PutUint64(buf[17:25], math.Float64bits(p.Lat))
	return strings.ToUpper(hex.EncodeToString(buf))
}

func decodeString(s string) (domain.GeoPoint, bool) {
	// Hex variants first; each is gated on exact length.
	if len(s) == ewkbPointHexLen && strings.HasPrefix(strings.ToUpper(s), ewkbPointPrefix) {
		lng, okLng := hexFloat(s[ewkbLngOffset : ewkbLngOffset+16])
		lat, okLat := hexFloat(s[ewkbLatOffset : ewkbLatOffset+16])
		if okLng && okLat {
			return checkPoint(lat, lng)
		}
		return domain.GeoPoint{}, false
	}
	if len(s) == wkbPointHexLen && strings.HasPrefix(strings.ToUpper(s), wkbPointPrefix) {
		lng, okLng := hexFloat(s[wkbLngOffset : wkbLngOffset+16])
		lat, okLat := hexFloat(s[wkbLatOffset : wkbLatOffset+16])
		if okLng && okLat {
			return checkPoint(lat, lng)
		}
		return domain.GeoPoint{}, false
	}

	if m := wktPointRe.FindStringSubmatch(s); m != nil {
		lng, errLng := strconv.ParseFloat(m[1], 64)
		lat, errLat := strconv.ParseFloat(m[2], 64)
		if errLng == nil && errLat == nil {
			return checkPoint(lat, lng)
		}
	}
	return domain.GeoPoint{}, false
}

func decodeObject(obj map[string]any) (domain.GeoPoint, bool) {
	// GeoJSON point: {"type":"Point","coordinates":[lng,lat]}
	if t, _ := obj["type"].(string); strings.EqualFold(t, "Point") {
		if coords, ok := obj["coordinates"].([]any); ok && len(coords) == 2 {
			lng, okLng := toFloat(coords[0])
			lat, okLat := toFloat(coords[1])
			if okLng && okLat {
				return checkPoint(lat, lng)
			}
		}
		return domain.GeoPoint{}, false
	}

	// Already-shaped {lat, lng}.
	lat, okLat := toFloat(obj["lat"])
	lng, okLng := toFloat(obj["lng"])
	if okLat && okLng {
		return checkPoint(lat, lng)
	}
	return domain.GeoPoint{}, false
}

// hexFloat parses 16 hex characters as a little-endian float64.
func hexFloat(s string) (float64, bool) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 8 {
		return 0, false
	}
	f := math.Float64frombits(binary.LittleEndian.Uint64(b))
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func checkPoint(lat, lng float64) (domain.GeoPoint, bool) {
	p := domain.GeoPoint{Lat: lat, Lng: lng}
	if !p.Valid() {
		return domain.GeoPoint{}, false
	}
	return p, true
}
