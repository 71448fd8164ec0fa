package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Map sync
	MetricRebuildLatency  = "mapstate.rebuild_latency"
	MetricFlagWriteVolume = "mapstate.flag_writes"

	// Search
	MetricSearchLatency    = "search.latency"
	MetricSearchSuperseded = "search.superseded_ratio"

	// Availability
	MetricUptime = "service.uptime_percentage"
)
