// Package metrics provides Prometheus metrics for the hydroskill service.
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the hydroskill service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	prefix          string
	registerer      prometheus.Registerer

	// Scoring
	scoresComputed *prometheus.CounterVec
	scoreFailures  *prometheus.CounterVec
	scoringLatency prometheus.Histogram

	// Runs
	runsSubmitted  prometheus.Counter
	runsDuplicate  prometheus.Counter
	runsCompleted  *prometheus.CounterVec
	runsStored     prometheus.Gauge
	rankedModels   prometheus.Gauge
	boardUpdates   prometheus.Counter
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueRejected  prometheus.Counter
	workerCount    prometheus.Gauge
	workerLatency  prometheus.Histogram
	errorsByOrigin *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "hydroskill",
		subsystem:       "scoring",
		latencyBuckets:  prometheus.DefBuckets,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		registerer:      prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.prefix == "" {
		return n
	}
	return m.prefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.latencyBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registerer)

	m.scoresComputed = auto.NewCounterVec(m.counterOpts("series_scored_total",
		"Prediction series scored, by outcome (complete, partial, failed)"), []string{"outcome"})
	m.scoreFailures = auto.NewCounterVec(m.counterOpts("score_failures_total",
		"Score failures by statistic and error kind"), []string{"statistic", "kind"})
	m.scoringLatency = auto.NewHistogram(m.histogramOpts("scoring_latency_seconds",
		"Time to score one prediction series"))

	m.runsSubmitted = auto.NewCounter(m.counterOpts("runs_submitted_total",
		"Asynchronous runs accepted for scoring"))
	m.runsDuplicate = auto.NewCounter(m.counterOpts("runs_duplicate_total",
		"Run submissions rejected as duplicates of an earlier run id"))
	m.runsCompleted = auto.NewCounterVec(m.counterOpts("runs_completed_total",
		"Asynchronous runs finished, by final status"), []string{"status"})
	m.runsStored = auto.NewGauge(m.gaugeOpts("runs_stored",
		"Runs currently held in the run store"))
	m.rankedModels = auto.NewGauge(m.gaugeOpts("leaderboard_models",
		"Distinct models on the NSE leaderboard"))
	m.boardUpdates = auto.NewCounter(m.counterOpts("leaderboard_updates_total",
		"Leaderboard entries improved by a new run"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Jobs waiting in the scoring queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Capacity of the scoring queue"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total",
		"Jobs rejected because the queue was full"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Workers currently consuming the scoring queue"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_job_latency_seconds",
		"Time for a worker to score and persist one run"))
	m.errorsByOrigin = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "type"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status code"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_seconds",
		"HTTP request duration"), []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes",
		"Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines",
		"Number of goroutines"))
}

// Enabled reports whether observations are recorded.
func (m *Manager) Enabled() bool { return m.enabled }

// RecordSeriesScored counts one scored prediction series by outcome.
func (m *Manager) RecordSeriesScored(outcome string, latency time.Duration) {
	if !m.enabled {
		return
	}
	m.scoresComputed.WithLabelValues(outcome).Inc()
	m.scoringLatency.Observe(latency.Seconds())
}

// RecordScoreFailure counts a failed statistic.
func (m *Manager) RecordScoreFailure(statistic, kind string) {
	if m.enabled {
		m.scoreFailures.WithLabelValues(statistic, kind).Inc()
	}
}

// RefreshSystem samples memory and goroutine gauges.
func (m *Manager) RefreshSystem() {
	if !m.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.HeapAlloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// StartSystemCollector refreshes system gauges every refresh interval until
// stop is closed.
func (m *Manager) StartSystemCollector(stop <-chan struct{}) {
	m.RefreshSystem()
	go func() {
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.RefreshSystem()
			}
		}
	}()
}

// Package-level helpers wired to the global manager.

// RecordSeriesScored counts one scored prediction series by outcome.
func RecordSeriesScored(outcome string, latency time.Duration) {
	globalManager.RecordSeriesScored(outcome, latency)
}

// RecordScoreFailure counts a failed statistic by error kind.
func RecordScoreFailure(statistic, kind string) {
	globalManager.RecordScoreFailure(statistic, kind)
}

// RecordRunSubmitted counts an accepted run.
func RecordRunSubmitted() {
	globalManager.runsSubmitted.Inc()
}

// RecordRunDuplicate counts a duplicate run submission.
func RecordRunDuplicate() {
	globalManager.runsDuplicate.Inc()
}

// RecordRunCompleted counts a finished run by status.
func RecordRunCompleted(status string) {
	globalManager.runsCompleted.WithLabelValues(status).Inc()
}

// UpdateRunsStored sets the number of runs held in the store.
func UpdateRunsStored(count int) {
	globalManager.runsStored.Set(float64(count))
}

// UpdateRankedModels sets the number of models on the leaderboard.
func UpdateRankedModels(count int) {
	globalManager.rankedModels.Set(float64(count))
}

// RecordLeaderboardUpdate counts an improved leaderboard entry.
func RecordLeaderboardUpdate() {
	globalManager.boardUpdates.Inc()
}

// UpdateQueueSize sets the number of queued jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a job rejected by a full queue.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerLatency observes how long a worker spent on one job.
func RecordWorkerLatency(d time.Duration) {
	globalManager.workerLatency.Observe(d.Seconds())
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByOrigin.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest counts a request and observes its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(d.Seconds())
}

// StartSystemCollector starts the global system gauge refresher.
func StartSystemCollector(stop <-chan struct{}) {
	globalManager.StartSystemCollector(stop)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler exposes the global registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
