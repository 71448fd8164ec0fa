package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/pkg/geo"
	"github.com/escaduto/spotospot/internal/pkg/metrics"
)

// GetTripHandler returns a trip by ID.
func GetTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "trip id is required")
		}
		trip, err := deps.Itinerary.GetTrip(c.UserContext(), id)
		if err != nil {
			return errNotFound(c, "trip not found")
		}
		return c.JSON(trip)
	}
}

// ListDaysHandler returns the days of a trip in order.
func ListDaysHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tripID := c.Params("id")
		if tripID == "" {
			return errBadRequest(c, "trip id is required")
		}
		days, err := deps.Itinerary.ListDays(c.UserContext(), tripID)
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(days)
		if offset >= total {
			days = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			days = days[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: days, Pagination: pg})
	}
}

// DaySnapshotHandler returns the full map payload for one day: the day
// row, its activities, and the route legs between them.
func DaySnapshotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "day id is required")
		}
		snap, err := deps.Itinerary.DaySnapshot(c.UserContext(), id)
		if err != nil {
			return errNotFound(c, "day not found")
		}
		return c.JSON(snap)
	}
}

// SearchPlacesHandler performs a free-text place search ranked around an
// optional origin.
func SearchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", deps.Search.Limit)
		if limit <= 0 || limit > 100 {
			limit = 25
		}

		var near *domain.GeoPoint
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		if lat != 0 || lng != 0 {
			p := domain.GeoPoint{Lat: lat, Lng: lng}
			if !p.Valid() {
				return errBadRequest(c, "invalid lat/lng")
			}
			near = &p
		}

		ctx := c.UserContext()
		var results []domain.SearchResult
		for _, s := range deps.Strategies {
			found, err := s.SearchText(ctx, query, near, limit)
			if err != nil || len(found) == 0 {
				metrics.StrategyFallthroughs.WithLabelValues(s.Name()).Inc()
				continue
			}
			results = found
			break
		}

		origin := domain.GeoPoint{}
		if near != nil {
			origin = *near
		}
		return c.JSON(geo.Rank(results, origin, geo.FreeTextWeights))
	}
}

// ViewportPlacesHandler returns places inside a bounding box, ranked
// from its center.
func ViewportPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bounds := domain.Bounds{
			MinLat: c.QueryFloat("min_lat", 0),
			MinLng: c.QueryFloat("min_lng", 0),
			MaxLat: c.QueryFloat("max_lat", 0),
			MaxLng: c.QueryFloat("max_lng", 0),
		}
		if bounds.MinLat >= bounds.MaxLat || bounds.MinLng >= bounds.MaxLng {
			return errBadRequest(c, "min_lat/min_lng must be below max_lat/max_lng")
		}
		limit := c.QueryInt("limit", deps.Search.Limit)
		if limit <= 0 || limit > 100 {
			limit = 25
		}

		ctx := c.UserContext()
		var results []domain.SearchResult
		for _, s := range deps.Strategies {
			found, err := s.SearchViewport(ctx, bounds, limit)
			if err != nil || len(found) == 0 {
				metrics.StrategyFallthroughs.WithLabelValues(s.Name()).Inc()
				continue
			}
			results = found
			break
		}

		return c.JSON(geo.Rank(results, bounds.Center(), geo.ViewportWeights))
	}
}

type repositionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RepositionActivityHandler commits a new location for an activity.
func RepositionActivityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "activity id is required")
		}
		var req repositionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Itinerary.Reposition(c.UserContext(), id, domain.GeoPoint{Lat: req.Lat, Lng: req.Lng}); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

type reorderRequest struct {
	OrderedIDs []string `json:"ordered_ids"`
}

// ReorderActivitiesHandler persists a new dense order for a day.
func ReorderActivitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dayID := c.Params("id")
		if dayID == "" {
			return errBadRequest(c, "day id is required")
		}
		var req reorderRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Itinerary.Reorder(c.UserContext(), dayID, req.OrderedIDs); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// AddActivityHandler appends an activity built from a search result.
func AddActivityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dayID := c.Params("id")
		if dayID == "" {
			return errBadRequest(c, "day id is required")
		}
		var res domain.SearchResult
		if err := c.BodyParser(&res); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		a, err := deps.Itinerary.AddFromPlace(c.UserContext(), dayID, &res)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(a)
	}
}

// ReplacePlaceHandler swaps the place behind an activity.
func ReplacePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "activity id is required")
		}
		var res domain.SearchResult
		if err := c.BodyParser(&res); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Itinerary.ReplacePlace(c.UserContext(), id, &res); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

type transportRequest struct {
	LegIDs []string `json:"leg_ids"`
	Types  []string `json:"types"`
}

// SetTransportTypesHandler updates transport types for one or more legs.
func SetTransportTypesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req transportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Itinerary.SetTransportTypes(c.UserContext(), req.LegIDs, req.Types); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.SendStatus(204)
	}
}
