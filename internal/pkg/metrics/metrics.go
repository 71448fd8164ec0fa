package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotospot",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spotospot",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spotospot",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Map-state sync metrics
	FeatureRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotospot",
		Subsystem: "mapstate",
		Name:      "rebuilds_total",
		Help:      "Total feature collection rebuilds pushed to map surfaces",
	}, []string{"group"})

	FlagWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotospot",
		Subsystem: "mapstate",
		Name:      "flag_writes_total",
		Help:      "Total per-feature state flag writes",
	}, []string{"group"})

	StaleFlagWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotospot",
		Subsystem: "mapstate",
		Name:      "stale_flag_writes_total",
		Help:      "Total flag writes dropped because their entity left the index",
	}, []string{"group"})

	SearchesSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spotospot",
		Subsystem: "search",
		Name:      "superseded_total",
		Help:      "Total search responses discarded as stale",
	})

	StrategyFallthroughs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotospot",
		Subsystem: "search",
		Name:      "strategy_fallthroughs_total",
		Help:      "Total times a search strategy yielded nothing and the chain moved on",
	}, []string{"strategy"})

	PointDecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spotospot",
		Subsystem: "geo",
		Name:      "point_decode_failures_total",
		Help:      "Total geometry payloads that could not be decoded to a point",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spotospot",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket map sessions",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotospot",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotospot",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spotospot",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spotospot",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spotospot",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	// Structural interface keeps pgxpool out of this package.
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
