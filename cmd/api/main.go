package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/escaduto/spotospot/internal/adapters/http"
	natsadapter "github.com/escaduto/spotospot/internal/adapters/nats"
	"github.com/escaduto/spotospot/internal/adapters/postgres"
	"github.com/escaduto/spotospot/internal/adapters/valkey"
	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/ports"
	"github.com/escaduto/spotospot/internal/core/usecases"
	"github.com/escaduto/spotospot/internal/pkg/config"
	"github.com/escaduto/spotospot/internal/pkg/logging"
	"github.com/escaduto/spotospot/internal/pkg/metrics"
	"github.com/escaduto/spotospot/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("spotospot-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup("spotospot-api", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for readiness checks
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats conn unavailable", "error", err)
	}

	// Pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Repos
	tripRepo := postgres.NewTripRepo(db)
	activityRepo := postgres.NewActivityRepo(db)
	legRepo := postgres.NewRouteLegRepo(db)

	// Search strategy chain, in priority order
	strategies := []ports.PlaceSearcher{postgres.NewIndexedPlaceSearcher(db)}
	if cfg.Search.EnableRPCStrategy {
		strategies = append(strategies, postgres.NewRPCPlaceSearcher(db))
	}
	if cfg.Search.EnableScanFallback {
		strategies = append(strategies, postgres.NewScanPlaceSearcher(db))
	}

	// Use cases
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	itinerarySvc := usecases.NewItineraryService(tripRepo, activityRepo, legRepo, cacheSvc)

	var intents ports.IntentPublisher
	if publisher != nil {
		intents = publisher
	}

	// Cross-instance convergence: the durable intent consumer turns
	// mutating intents into day-update broadcasts (work-queue retention
	// means exactly one instance does the fanout), and every instance
	// relays broadcasts to its sessions through the hub.
	hub := http.NewUpdateHub()
	if publisher != nil {
		subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer subscriber.Close()
			err = subscriber.SubscribeIntents(ctx, func(ctx context.Context, intent domain.Intent) error {
				if intent.DayID == "" {
					return nil
				}
				switch intent.Kind {
				case domain.IntentRepositionActivity, domain.IntentAddActivity, domain.IntentReplaceActivity:
				default:
					return nil
				}
				data, err := json.Marshal(http.DayUpdate{DayID: intent.DayID})
				if err != nil {
					return err
				}
				return publisher.PublishBroadcast(ctx, data)
			})
			if err != nil {
				slog.Warn("intent subscription failed", "error", err)
			}
			if err := subscriber.SubscribeBroadcasts(hub.Dispatch); err != nil {
				slog.Warn("broadcast subscription failed", "error", err)
			}
		}
	}

	deps := &http.Dependencies{
		Itinerary:  itinerarySvc,
		Strategies: strategies,
		Intents:    intents,
		Search:     cfg.Search,
		Updates:    hub,
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "SpotoSpot API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.spotospot.app",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
