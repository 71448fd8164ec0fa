package domain

// Intent kinds emitted by the layer controllers. The UI layer persists
// them through the store and feeds refreshed entity lists back down.
const (
	IntentSelectActivity      = "select_activity"
	IntentRepositionActivity  = "reposition_activity"
	IntentAddActivity         = "add_activity"
	IntentReplaceActivity     = "replace_activity"
	IntentOpenTransportEditor = "open_transport_editor"
	IntentToggleMultiSelect   = "toggle_multi_select"
)

// Intent is a typed user intention derived from raw pointer events.
type Intent struct {
	Kind string `json:"kind"`

	// DayID scopes mutating intents to the day they touch, so other
	// instances know which sessions to converge.
	DayID string `json:"day_id,omitempty"`

	// ActivityID is set for select/reposition/replace intents.
	ActivityID string `json:"activity_id,omitempty"`

	// RouteID is set for route interactions.
	RouteID string `json:"route_id,omitempty"`

	// Result carries the search result for add/replace intents.
	Result *SearchResult `json:"result,omitempty"`

	// Point is the committed map location for reposition intents.
	Point *GeoPoint `json:"point,omitempty"`

	// Screen is the clamped viewport position for editor placement.
	Screen *ScreenPoint `json:"screen,omitempty"`
}
