package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric the service exports.
type AppMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	MatrixBuildsTotal     CounterVec
	MatrixBuildDuration   HistogramVec
	MatrixPointCount      HistogramVec
	MatrixDisplacedPoints CounterVec

	SelectionTogglesTotal  CounterVec
	VisibilityCommitsTotal CounterVec

	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	EventsPublishedTotal CounterVec
	EventsConsumedTotal  CounterVec

	SnapshotExportsTotal   CounterVec
	SnapshotExportDuration HistogramVec
}

var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultMatrixDurationBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}
	DefaultPointCountBuckets     = []float64{0, 10, 25, 50, 100, 250, 500, 1000, 2500}
	DefaultExportDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "service", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "service", "method")

	m.MatrixBuildsTotal = collector.RegisterCounter("matrix_builds_total", "Matrix builds", "source", "status")
	m.MatrixBuildDuration = collector.RegisterHistogram("matrix_build_duration_seconds", "Matrix build duration", DefaultMatrixDurationBuckets, "source")
	m.MatrixPointCount = collector.RegisterHistogram("matrix_points", "Points plotted per matrix", DefaultPointCountBuckets, "source")
	m.MatrixDisplacedPoints = collector.RegisterCounter("matrix_displaced_points_total", "Points moved by overlap resolution", "source")

	m.SelectionTogglesTotal = collector.RegisterCounter("selection_toggles_total", "Group toggle requests", "result")
	m.VisibilityCommitsTotal = collector.RegisterCounter("visibility_commits_total", "Visibility bulk updates", "status")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Events published", "topic", "status")
	m.EventsConsumedTotal = collector.RegisterCounter("events_consumed_total", "Events consumed", "topic", "status")

	m.SnapshotExportsTotal = collector.RegisterCounter("snapshot_exports_total", "Snapshot exports", "status")
	m.SnapshotExportDuration = collector.RegisterHistogram("snapshot_export_duration_seconds", "Snapshot export duration", DefaultExportDurationBuckets)

	return m
}

// Helpers.  Each one accepts a nil *AppMetrics so callers can run without
// metrics wired.

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordGRPCRequest(m *AppMetrics, service, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

func RecordMatrixBuild(m *AppMetrics, source string, duration time.Duration, points, displaced int, err error) {
	if m == nil {
		return
	}
	m.MatrixBuildsTotal.WithLabelValues(source, status(err)).Inc()
	if err != nil {
		return
	}
	m.MatrixBuildDuration.WithLabelValues(source).Observe(duration.Seconds())
	m.MatrixPointCount.WithLabelValues(source).Observe(float64(points))
	m.MatrixDisplacedPoints.WithLabelValues(source).Add(float64(displaced))
}

func RecordSelectionToggle(m *AppMetrics, changed bool) {
	if m == nil {
		return
	}
	result := "ignored"
	if changed {
		result = "changed"
	}
	m.SelectionTogglesTotal.WithLabelValues(result).Inc()
}

func RecordVisibilityCommit(m *AppMetrics, err error) {
	if m == nil {
		return
	}
	m.VisibilityCommitsTotal.WithLabelValues(status(err)).Inc()
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordEventPublished(m *AppMetrics, topic string, err error) {
	if m == nil {
		return
	}
	m.EventsPublishedTotal.WithLabelValues(topic, status(err)).Inc()
}

func RecordEventConsumed(m *AppMetrics, topic string, err error) {
	if m == nil {
		return
	}
	m.EventsConsumedTotal.WithLabelValues(topic, status(err)).Inc()
}

func RecordSnapshotExport(m *AppMetrics, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.SnapshotExportsTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		m.SnapshotExportDuration.WithLabelValues().Observe(duration.Seconds())
	}
}
