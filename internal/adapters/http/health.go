package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler is the liveness probe: process up, nothing else.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"uptime": time.Since(startedAt).Round(time.Second).String(),
		})
	}
}

// ReadyHandler is the readiness probe. The database gates readiness;
// NATS and the cache are reported but optional, since the REST surface
// works without either.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true

		if deps.DB == nil {
			checks["database"] = "not configured"
			ready = false
		} else if err := deps.DB.Pool.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}

		switch {
		case deps.NATS == nil:
			checks["nats"] = "not configured"
		case deps.NATS.IsConnected():
			checks["nats"] = "ok"
		default:
			checks["nats"] = "disconnected"
		}

		if deps.Cache == nil {
			checks["cache"] = "not configured"
		} else if _, err := deps.Cache.Get(ctx, "__health_check__"); err != nil && err.Error() != "valkey nil message" {
			// a missing key comes back as "valkey nil message", which is fine
			checks["cache"] = "error: " + err.Error()
		} else {
			checks["cache"] = "ok"
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
