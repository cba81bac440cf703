// Package metrics provides Prometheus metrics for the duelodds service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the duelodds service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Query metrics
	queries            *prometheus.CounterVec
	queryErrors        *prometheus.CounterVec
	queryLatency       *prometheus.HistogramVec
	outcomesEnumerated prometheus.Counter
	eventsPerQuery     prometheus.Histogram

	// Memo metrics
	memoHits   prometheus.Counter
	memoMisses prometheus.Counter
	memoSize   prometheus.Gauge

	// Batch queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueRejected    prometheus.Counter
	batchSize        prometheus.Histogram
	workerCount      prometheus.Gauge
	workerBusy       prometheus.Gauge
	workerJobLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before any metric is recorded and
// before GetRegistry is handed to an HTTP handler.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "duelodds",
		subsystem:        "calculator",
		histogramBuckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.queries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queries_total",
		Help:        "Total number of probability queries by kind and schedule variant",
		ConstLabels: labels,
	}, []string{"kind", "schedule"})

	m.queryErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "query_errors_total",
		Help:        "Total number of rejected or failed queries by kind and reason",
		ConstLabels: labels,
	}, []string{"kind", "reason"})

	m.queryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "query_latency_milliseconds",
		Help:        "Query evaluation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"kind"})

	m.outcomesEnumerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "outcomes_enumerated_total",
		Help:        "Total number of outcome sequences enumerated (2^N per evaluated query)",
		ConstLabels: labels,
	})

	m.eventsPerQuery = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_per_query",
		Help:        "Number of events in evaluated queries",
		Buckets:     prometheus.LinearBuckets(0, 4, 8),
		ConstLabels: labels,
	})

	m.memoHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "memo_hits_total",
		Help:        "Total number of queries answered from the result memo",
		ConstLabels: labels,
	})

	m.memoMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "memo_misses_total",
		Help:        "Total number of queries that required enumeration",
		ConstLabels: labels,
	})

	m.memoSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "memo_size",
		Help:        "Current number of results held by the memo",
		ConstLabels: labels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_queue_size",
		Help:        "Current number of batch jobs waiting for a worker",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_queue_capacity",
		Help:        "Maximum number of queued batch jobs",
		ConstLabels: labels,
	})

	m.queueRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_queue_rejected_total",
		Help:        "Total number of batch jobs rejected by backpressure",
		ConstLabels: labels,
	})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_size",
		Help:        "Number of queries per batch request",
		Buckets:     prometheus.ExponentialBuckets(1, 2, 10),
		ConstLabels: labels,
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_count",
		Help:        "Number of batch workers",
		ConstLabels: labels,
	})

	m.workerBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_busy",
		Help:        "Number of batch workers currently evaluating a query",
		ConstLabels: labels,
	})

	m.workerJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_job_latency_milliseconds",
		Help:        "Time from dequeue to result for a batch job in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Total number of errors by endpoint",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_type_total",
		Help:        "Total number of errors by type",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Query Metrics Functions.

// RecordQuery counts an evaluated query and the outcomes it enumerated.
func RecordQuery(kind, schedule string, events int) {
	globalManager.queries.WithLabelValues(kind, schedule).Inc()
	globalManager.eventsPerQuery.Observe(float64(events))
	if events >= 0 && events < 63 {
		globalManager.outcomesEnumerated.Add(float64(uint64(1) << uint(events)))
	}
}

// RecordQueryError counts a rejected or failed query.
func RecordQueryError(kind, reason string) {
	globalManager.queryErrors.WithLabelValues(kind, reason).Inc()
}

// RecordQueryLatency records query evaluation latency in milliseconds.
func RecordQueryLatency(kind string, latencyMs float64) {
	globalManager.queryLatency.WithLabelValues(kind).Observe(latencyMs)
}

// Memo Metrics Functions.

// RecordMemoHit increments the memo hit counter.
func RecordMemoHit() {
	globalManager.memoHits.Inc()
}

// RecordMemoMiss increments the memo miss counter.
func RecordMemoMiss() {
	globalManager.memoMisses.Inc()
}

// UpdateMemoSize sets the number of memoised results.
func UpdateMemoSize(size int64) {
	globalManager.memoSize.Set(float64(size))
}

// Batch Metrics Functions.

// UpdateQueueSize sets the current batch queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum batch queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected increments the backpressure counter.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// RecordBatchSize records the number of queries in a batch.
func RecordBatchSize(n int) {
	globalManager.batchSize.Observe(float64(n))
}

// UpdateWorkerCount sets the number of batch workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// IncWorkerBusy marks a worker as busy.
func IncWorkerBusy() {
	globalManager.workerBusy.Inc()
}

// DecWorkerBusy marks a worker as idle again.
func DecWorkerBusy() {
	globalManager.workerBusy.Dec()
}

// RecordWorkerJobLatency records batch job latency in milliseconds.
func RecordWorkerJobLatency(latencyMs float64) {
	globalManager.workerJobLatency.Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
