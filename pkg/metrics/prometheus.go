// Package metrics provides Prometheus metrics for the courtside referee service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Match Metrics - What happens on court
	pointsScored    *prometheus.CounterVec
	pointsRemoved   *prometheus.CounterVec
	rotations       *prometheus.CounterVec
	substitutions   *prometheus.CounterVec
	liberoExchanges *prometheus.CounterVec
	setsFinished    *prometheus.CounterVec
	matchesFinished prometheus.Counter
	coinTosses      *prometheus.CounterVec

	// Operator Metrics
	rejectedActions   *prometheus.CounterVec
	duplicateCommands prometheus.Counter

	// Persistence Metrics
	persistWrites   *prometheus.CounterVec
	persistErrors   *prometheus.CounterVec
	persistLatency  *prometheus.HistogramVec
	stateRecoveries *prometheus.CounterVec

	// Queue Metrics - Write-behind persistence
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
	idempotencyKeys      prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "courtside",
		subsystem:        "referee",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Match Metrics
	m.pointsScored = m.counterVec("points_scored_total", "Total number of rallies won, by team", "team")
	m.pointsRemoved = m.counterVec("points_removed_total", "Total number of points taken back by the operator, by team", "team")
	m.rotations = m.counterVec("rotations_total", "Total number of lineup rotations, by cause (service or manual)", "cause")
	m.substitutions = m.counterVec("substitutions_total", "Total number of counted substitutions, by team", "team")
	m.liberoExchanges = m.counterVec("libero_exchanges_total", "Total number of libero exchanges, by kind (enter, exit, swap, auto)", "kind")
	m.setsFinished = m.counterVec("sets_finished_total", "Total number of sets won, by set number", "set")
	m.matchesFinished = m.counter("matches_finished_total", "Total number of matches decided")
	m.coinTosses = m.counterVec("coin_tosses_total", "Total number of coin toss winners designated, by mode", "mode")

	// Operator Metrics
	m.rejectedActions = m.counterVec("rejected_actions_total", "Total number of operator actions rejected by match rules", "operation")
	m.duplicateCommands = m.counter("duplicate_commands_total", "Total number of repeated commands acknowledged without being applied")

	// Persistence Metrics
	m.persistWrites = m.counterVec("persist_writes_total", "Total number of state writes, by store driver", "driver")
	m.persistErrors = m.counterVec("persist_errors_total", "Total number of failed state writes, by key", "key")
	m.persistLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "persist_latency_milliseconds",
		Help:        "Store operation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"driver", "operation"})
	m.stateRecoveries = m.counterVec("state_recoveries_total", "Total number of corrupt persisted values discarded at load, by key", "key")

	// Queue Metrics
	m.queueSize = m.gauge("queue_size", "Current number of pending state writes")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum pending state writes")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of writes enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of writes dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors")

	// Worker Metrics
	m.workerActiveCount = m.gauge("worker_active_count", "Number of running persistence writers")
	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_processing_latency_milliseconds",
		Help:        "Time from enqueue to durable write in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of writes the writer failed to store")

	// HTTP Performance Metrics
	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")

	// System Performance Metrics
	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of running goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_milliseconds",
		Help:        "Average GC pause in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
	m.idempotencyKeys = m.gauge("idempotency_keys", "Number of remembered command keys")
}

// RecordPointScored increments the rallies won by team.
func RecordPointScored(team string) {
	globalManager.pointsScored.WithLabelValues(team).Inc()
}

// RecordPointRemoved increments the points taken back from team.
func RecordPointRemoved(team string) {
	globalManager.pointsRemoved.WithLabelValues(team).Inc()
}

// RecordRotation increments the rotation counter for cause.
func RecordRotation(cause string) {
	globalManager.rotations.WithLabelValues(cause).Inc()
}

// RecordSubstitution increments the counted substitutions of team.
func RecordSubstitution(team string) {
	globalManager.substitutions.WithLabelValues(team).Inc()
}

// RecordLiberoExchange increments the libero exchange counter for kind.
func RecordLiberoExchange(kind string) {
	globalManager.liberoExchanges.WithLabelValues(kind).Inc()
}

// RecordSetFinished increments the finished set counter.
func RecordSetFinished(number int) {
	globalManager.setsFinished.WithLabelValues(strconv.Itoa(number)).Inc()
}

// RecordMatchFinished increments the finished match counter.
func RecordMatchFinished() {
	globalManager.matchesFinished.Inc()
}

// RecordCoinToss increments the coin toss counter for mode.
func RecordCoinToss(mode string) {
	globalManager.coinTosses.WithLabelValues(mode).Inc()
}

// RecordRejected increments the rejected action counter for operation.
func RecordRejected(operation string) {
	globalManager.rejectedActions.WithLabelValues(operation).Inc()
}

// RecordDuplicateCommand increments the duplicate command counter.
func RecordDuplicateCommand() {
	globalManager.duplicateCommands.Inc()
}

// Persistence Metrics Functions.

// RecordPersistWrite increments the successful write counter for driver.
func RecordPersistWrite(driver string) {
	globalManager.persistWrites.WithLabelValues(driver).Inc()
}

// RecordPersistError increments the failed write counter for key.
func RecordPersistError(key string) {
	globalManager.persistErrors.WithLabelValues(key).Inc()
}

// RecordPersistLatency records a store operation latency in milliseconds.
func RecordPersistLatency(driver, operation string, latencyMs float64) {
	globalManager.persistLatency.WithLabelValues(driver, operation).Observe(latencyMs)
}

// RecordStateRecovered increments the discarded value counter for key.
func RecordStateRecovered(key string) {
	globalManager.stateRecoveries.WithLabelValues(key).Inc()
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of running writers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
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

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// UpdateIdempotencyKeys sets the number of remembered command keys.
func UpdateIdempotencyKeys(count int) {
	globalManager.idempotencyKeys.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
