package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AccessLogMiddleware emits one structured log line per request.
// Liveness probes and the metrics scrape are skipped; they would drown
// everything else at 15s intervals.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		switch path {
		case "/v1/health", "/v1/ready", "/metrics":
			return c.Next()
		}

		start := time.Now()
		method := c.Method()
		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			attrs = append(attrs, slog.String("request_id", rid))
		}

		level := slog.LevelInfo
		switch {
		case err != nil || status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		slog.LogAttrs(c.Context(), level, method+" "+path, attrs...)
		return err
	}
}
