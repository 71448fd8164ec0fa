package domain

// Layer group names. Each group owns one source collection and one
// id-index map; the same entity id may carry different flags in
// different groups.
const (
	GroupActivities = "activities"
	GroupRoutes     = "routes"
	GroupSearch     = "search"
)

// StateFlags are the transient per-feature booleans tracked by the
// rendering layer, distinct from the entity's persisted data.
type StateFlags struct {
	Selected      bool `json:"selected"`
	Editing       bool `json:"editing"`
	Hover         bool `json:"hover"`
	MultiSelected bool `json:"multiSelected"`
	Dimmed        bool `json:"dimmed"`
}

// FlagChange is a partial update of StateFlags; nil fields are left
// untouched so a hover toggle never clobbers selection.
type FlagChange struct {
	Selected      *bool
	Editing       *bool
	Hover         *bool
	MultiSelected *bool
	Dimmed        *bool
}

// Bool is a convenience for building FlagChange literals.
func Bool(v bool) *bool { return &v }

// ApplyTo merges the change into flags and reports whether anything
// actually changed.
func (c FlagChange) ApplyTo(f *StateFlags) bool {
	changed := false
	set := func(dst *bool, src *bool) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	set(&f.Selected, c.Selected)
	set(&f.Editing, c.Editing)
	set(&f.Hover, c.Hover)
	set(&f.MultiSelected, c.MultiSelected)
	set(&f.Dimmed, c.Dimmed)
	return changed
}

// Diff returns only the fields of the change whose values differ from
// the current flags, as the flat map the rendering engine consumes.
func (c FlagChange) Diff(f StateFlags) map[string]bool {
	out := map[string]bool{}
	put := func(name string, cur bool, want *bool) {
		if want != nil && cur != *want {
			out[name] = *want
		}
	}
	put("selected", f.Selected, c.Selected)
	put("editing", f.Editing, c.Editing)
	put("hover", f.Hover, c.Hover)
	put("multiSelected", f.MultiSelected, c.MultiSelected)
	put("dimmed", f.Dimmed, c.Dimmed)
	return out
}

// Geometry is the GeoJSON-shaped geometry carried by a display feature.
type Geometry struct {
	Type        string `json:"type"` // Point | LineString
	Coordinates any    `json:"coordinates"`
}

// PointGeometry builds a GeoJSON Point ([lng, lat] order).
func PointGeometry(p GeoPoint) Geometry {
	return Geometry{Type: "Point", Coordinates: []float64{p.Lng, p.Lat}}
}

// LineGeometry builds a GeoJSON LineString.
func LineGeometry(line []GeoPoint) Geometry {
	coords := make([][]float64, 0, len(line))
	for _, p := range line {
		coords = append(coords, []float64{p.Lng, p.Lat})
	}
	return Geometry{Type: "LineString", Coordinates: coords}
}

// Feature is one renderable map feature. ID is the small integer the
// rendering engine indexes feature state by; EntityID is the domain id
// it was derived from.
type Feature struct {
	Type       string         `json:"type"` // always "Feature"
	ID         int            `json:"id"`
	EntityID   string         `json:"entityId"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
}

// FeatureCollection is the GeoJSON-shaped payload a layer source is
// replaced with on rebuild.
type FeatureCollection struct {
	Type     string    `json:"type"` // always "FeatureCollection"
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features in a collection envelope.
func NewFeatureCollection(features []Feature) FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
