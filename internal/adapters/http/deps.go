package http

import (
	"github.com/nats-io/nats.go"

	"github.com/escaduto/spotospot/internal/adapters/postgres"
	"github.com/escaduto/spotospot/internal/adapters/valkey"
	"github.com/escaduto/spotospot/internal/core/ports"
	"github.com/escaduto/spotospot/internal/core/usecases"
	"github.com/escaduto/spotospot/internal/pkg/config"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Itinerary  *usecases.ItineraryService
	Strategies []ports.PlaceSearcher
	Intents    ports.IntentPublisher
	Search     config.SearchConfig
	Updates    *UpdateHub
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache
}
