package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/ports"
	"github.com/escaduto/spotospot/internal/core/usecases"
	"github.com/escaduto/spotospot/internal/pkg/metrics"
)

// connSurface adapts one WebSocket connection to ports.MapSurface. The
// server owns all feature state; the client only renders the frames it
// receives and reports pointer events back.
type connSurface struct {
	mu   sync.Mutex // guards writes to conn
	conn *websocket.Conn

	hmu      sync.RWMutex
	handlers map[string]ports.PointerHandlers

	width, height float64
}

func newConnSurface(conn *websocket.Conn) *connSurface {
	return &connSurface{
		conn:     conn,
		handlers: map[string]ports.PointerHandlers{},
		width:    1280,
		height:   800,
	}
}

func (s *connSurface) write(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *connSurface) ReplaceCollection(group string, fc domain.FeatureCollection) {
	metrics.FeatureRebuilds.WithLabelValues(group).Inc()
	s.write(map[string]interface{}{
		"type":       "set_collection",
		"group":      group,
		"collection": fc,
	})
}

func (s *connSurface) WriteFlags(group string, featureID int, changed map[string]bool) {
	metrics.FlagWrites.WithLabelValues(group).Inc()
	s.write(map[string]interface{}{
		"type":       "set_feature_state",
		"group":      group,
		"feature_id": featureID,
		"state":      changed,
	})
}

func (s *connSurface) Register(group string, h ports.PointerHandlers) func() {
	s.hmu.Lock()
	s.handlers[group] = h
	s.hmu.Unlock()

	done := false
	return func() {
		s.hmu.Lock()
		defer s.hmu.Unlock()
		if done {
			return
		}
		done = true
		delete(s.handlers, group)
	}
}

func (s *connSurface) ShowDragOverlay(entityID string, at domain.GeoPoint) {
	s.write(map[string]interface{}{
		"type":      "drag_overlay",
		"entity_id": entityID,
		"at":        at,
	})
}

func (s *connSurface) RemoveDragOverlay() {
	s.write(map[string]interface{}{"type": "remove_drag_overlay"})
}

func (s *connSurface) ShowPopup(r domain.SearchResult, at domain.GeoPoint) {
	s.write(map[string]interface{}{
		"type":   "popup",
		"result": r,
		"at":     at,
	})
}

func (s *connSurface) HidePopup() {
	s.write(map[string]interface{}{"type": "hide_popup"})
}

func (s *connSurface) ViewportSize() (float64, float64) {
	s.hmu.RLock()
	defer s.hmu.RUnlock()
	return s.width, s.height
}

func (s *connSurface) setViewport(w, h float64) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	if w > 0 && h > 0 {
		s.width, s.height = w, h
	}
}

func (s *connSurface) dispatch(group, event string, ev ports.PointerEvent) {
	s.hmu.RLock()
	h, ok := s.handlers[group]
	s.hmu.RUnlock()
	if !ok {
		return
	}
	switch event {
	case "move":
		if h.OnMove != nil {
			h.OnMove(ev)
		}
	case "leave":
		if h.OnLeave != nil {
			h.OnLeave(ev)
		}
	case "click":
		if h.OnClick != nil {
			h.OnClick(ev)
		}
	case "contextmenu":
		if h.OnContextMenu != nil {
			h.OnContextMenu(ev)
		}
	case "dragend":
		if h.OnDragEnd != nil {
			h.OnDragEnd(ev)
		}
	}
}

// sessionIntents publishes interaction intents to NATS and applies the
// mutating ones to the itinerary, then refreshes the session so fresh
// entity lists flow back down to the client.
type sessionIntents struct {
	remote    ports.IntentPublisher
	itinerary *usecases.ItineraryService
	session   *usecases.MapSession
}

func (p *sessionIntents) Publish(ctx context.Context, intent domain.Intent) error {
	if intent.DayID == "" {
		intent.DayID = p.session.DayID()
	}
	if p.remote != nil {
		if err := p.remote.Publish(ctx, intent); err != nil {
			slog.Warn("intent publish failed", "kind", intent.Kind, "error", err)
		}
	}

	switch intent.Kind {
	case domain.IntentRepositionActivity:
		if intent.Point == nil {
			return nil
		}
		if err := p.itinerary.Reposition(ctx, intent.ActivityID, *intent.Point); err != nil {
			return err
		}
		return p.session.RefreshDay(ctx)

	case domain.IntentAddActivity:
		if _, err := p.itinerary.AddFromPlace(ctx, p.session.DayID(), intent.Result); err != nil {
			return err
		}
		return p.session.RefreshDay(ctx)

	case domain.IntentReplaceActivity:
		if err := p.itinerary.ReplacePlace(ctx, intent.ActivityID, intent.Result); err != nil {
			return err
		}
		p.session.Activities.StopEditing()
		return p.session.RefreshDay(ctx)
	}
	return nil
}

// wsClientMessage is what the map client sends upstream.
type wsClientMessage struct {
	Action string `json:"action"`

	DayID string `json:"day_id,omitempty"`

	// pointer events
	Group     string   `json:"group,omitempty"`
	Event     string   `json:"event,omitempty"`
	FeatureID int      `json:"feature_id,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	X         float64  `json:"x,omitempty"`
	Y         float64  `json:"y,omitempty"`
	Modifier  bool     `json:"modifier,omitempty"`

	// search
	Query  string         `json:"query,omitempty"`
	Bounds *domain.Bounds `json:"bounds,omitempty"`

	// selection / editing / list hover
	ActivityID string `json:"activity_id,omitempty"`
	ResultID   string `json:"result_id,omitempty"`

	// viewport size reports
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// MapSessionHandler upgrades to WebSocket and runs one map session: a
// private feature-state store and controller set bound to this client.
func MapSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("map session connected", "remote", remoteAddr)

		surface := newConnSurface(c)
		intents := &sessionIntents{remote: deps.Intents, itinerary: deps.Itinerary}
		session := usecases.NewMapSession(surface, intents, deps.Strategies, deps.Itinerary)
		intents.session = session
		defer session.Close()

		session.Orchestrator.SetDebounce(
			time.Duration(deps.Search.TextDebounceMs)*time.Millisecond,
			time.Duration(deps.Search.ViewportDebounceMs)*time.Millisecond,
		)
		session.Orchestrator.SetSupersededHook(metrics.SearchesSuperseded.Inc)
		session.Store.SetStaleWriteHook(func(group string) {
			metrics.StaleFlagWrites.WithLabelValues(group).Inc()
		})

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					surface.mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					surface.mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		ctx := context.Background()

		// Converge on updates made by other sessions or instances.
		var unwatch func()
		defer func() {
			if unwatch != nil {
				unwatch()
			}
		}()
		watchDay := func(dayID string) {
			if deps.Updates == nil {
				return
			}
			if unwatch != nil {
				unwatch()
			}
			ch, cancel := deps.Updates.Subscribe(dayID)
			unwatch = cancel
			go func() {
				for range ch {
					if err := session.RefreshDay(ctx); err != nil {
						slog.Warn("day refresh failed", "day_id", dayID, "error", err)
					}
				}
			}()
		}

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsClientMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				surface.write(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "load_day":
				if err := session.LoadDay(ctx, m.DayID); err != nil {
					surface.write(map[string]string{"error": "load day: " + err.Error()})
				} else {
					watchDay(m.DayID)
				}

			case "pointer":
				ev := ports.PointerEvent{
					FeatureID: m.FeatureID,
					Screen:    domain.ScreenPoint{X: m.X, Y: m.Y},
					Modifier:  m.Modifier,
				}
				if m.Lat != nil && m.Lng != nil {
					ev.LngLat = &domain.GeoPoint{Lat: *m.Lat, Lng: *m.Lng}
				}
				surface.dispatch(m.Group, m.Event, ev)

			case "query_text":
				var near *domain.GeoPoint
				if m.Lat != nil && m.Lng != nil {
					near = &domain.GeoPoint{Lat: *m.Lat, Lng: *m.Lng}
				}
				session.Orchestrator.QueryText(m.Query, near)

			case "query_viewport":
				if m.Bounds != nil {
					session.Orchestrator.QueryViewport(*m.Bounds)
				}

			case "search_now":
				var near *domain.GeoPoint
				if m.Lat != nil && m.Lng != nil {
					near = &domain.GeoPoint{Lat: *m.Lat, Lng: *m.Lng}
				}
				session.Orchestrator.SearchNow(ctx, m.Query, near)

			case "select":
				session.Activities.Select(m.ActivityID)

			case "start_edit":
				session.Activities.StartEditing(m.ActivityID)

			case "stop_edit":
				session.Activities.StopEditing()

			case "hover_result":
				session.Search.HoverResult(m.ResultID)

			case "leave_result":
				session.Search.LeaveResult()

			case "viewport":
				surface.setViewport(m.Width, m.Height)

			default:
				surface.write(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		slog.Info("map session disconnected", "remote", remoteAddr)
	}
}
