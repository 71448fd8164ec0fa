package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/pkg/geo"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	tripType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Trip",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"user_id":    &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"start_date": &graphql.Field{Type: graphql.DateTime},
			"end_date":   &graphql.Field{Type: graphql.DateTime},
		},
	})

	dayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TripDay",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"trip_id":   &graphql.Field{Type: graphql.String},
			"day_index": &graphql.Field{Type: graphql.Int},
			"notes":     &graphql.Field{Type: graphql.String},
		},
	})

	activityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Activity",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"day_id":        &graphql.Field{Type: graphql.String},
			"order_index":   &graphql.Field{Type: graphql.Int},
			"geometry":      &graphql.Field{Type: geoPointType},
			"display_label": &graphql.Field{Type: graphql.String},
			"type":          &graphql.Field{Type: graphql.String},
			"time_window":   &graphql.Field{Type: graphql.String},
		},
	})

	legType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteLeg",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"day_id":           &graphql.Field{Type: graphql.String},
			"from_activity_id": &graphql.Field{Type: graphql.String},
			"to_activity_id":   &graphql.Field{Type: graphql.String},
			"distance_meters":  &graphql.Field{Type: graphql.Float},
			"duration_sec":     &graphql.Field{Type: graphql.Int},
			"transport_types":  &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	snapshotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DaySnapshot",
		Fields: graphql.Fields{
			"day":        &graphql.Field{Type: dayType},
			"activities": &graphql.Field{Type: graphql.NewList(activityType)},
			"legs":       &graphql.Field{Type: graphql.NewList(legType)},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"source_table":     &graphql.Field{Type: graphql.String},
			"name":             &graphql.Field{Type: graphql.String},
			"category":         &graphql.Field{Type: graphql.String},
			"geometry":         &graphql.Field{Type: geoPointType},
			"popularity_score": &graphql.Field{Type: graphql.Float},
			"score":            &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"trip": &graphql.Field{
				Type:        tripType,
				Description: "Get a trip by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Itinerary.GetTrip(p.Context, p.Args["id"].(string))
				},
			},
			"days": &graphql.Field{
				Type:        graphql.NewList(dayType),
				Description: "List the days of a trip in order",
				Args: graphql.FieldConfigArgument{
					"trip_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Itinerary.ListDays(p.Context, p.Args["trip_id"].(string))
				},
			},
			"daySnapshot": &graphql.Field{
				Type:        snapshotType,
				Description: "Everything the map needs for one day",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Itinerary.DaySnapshot(p.Context, p.Args["id"].(string))
				},
			},
			"searchPlaces": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Free-text place search, ranked around an optional origin",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":   &graphql.ArgumentConfig{Type: graphql.Float},
					"lng":   &graphql.ArgumentConfig{Type: graphql.Float},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 25},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					query := p.Args["query"].(string)
					limit := p.Args["limit"].(int)

					var near *domain.GeoPoint
					lat, latOK := p.Args["lat"].(float64)
					lng, lngOK := p.Args["lng"].(float64)
					if latOK && lngOK {
						near = &domain.GeoPoint{Lat: lat, Lng: lng}
					}

					var results []domain.SearchResult
					for _, s := range deps.Strategies {
						found, err := s.SearchText(p.Context, query, near, limit)
						if err != nil || len(found) == 0 {
							continue
						}
						results = found
						break
					}

					origin := domain.GeoPoint{}
					if near != nil {
						origin = *near
					}
					return geo.Rank(results, origin, geo.FreeTextWeights), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// GraphQLHandler serves POST /graphql.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		return func(c *fiber.Ctx) error {
			return errInternal(c, "graphql schema init failed: "+err.Error())
		}
	}

	return func(c *fiber.Ctx) error {
		var req graphqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			Context:        c.UserContext(),
		})
		return c.JSON(result)
	}
}
