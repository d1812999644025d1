// Package metrics provides Prometheus metrics for the clanboard assessment service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds; assessment runs span a few ms to several seconds.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Assessment engine
	assessmentRuns     *prometheus.CounterVec
	assessmentDuration prometheus.Histogram
	membersScored      prometheus.Counter
	cacheHits          prometheus.Counter
	timelineDegraded   prometheus.Counter
	bandMembers        *prometheus.GaugeVec
	runsInProgress     prometheus.Gauge

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Jobs
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueRejected *prometheus.CounterVec
	workerCount   prometheus.Gauge
	workerBusy    prometheus.Gauge
	jobLatency    prometheus.Histogram
	jobErrors     prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "clanboard",
		subsystem:        "leadership",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.assessmentRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "assessment_runs_total",
		Help: "Assessment runs by run type and outcome (computed, cached, failed)",
	}, []string{"run_type", "outcome"})

	m.assessmentDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    "assessment_duration_milliseconds",
		Help:    "Wall time of computed assessment runs",
		Buckets: m.histogramBuckets,
	})

	m.membersScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "members_scored_total",
		Help: "Roster members scored across all runs",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "assessment_cache_hits_total",
		Help: "Auto runs answered from a fresh stored run",
	})

	m.timelineDegraded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "timeline_degraded_total",
		Help: "Runs that proceeded without activity timeline data",
	})

	m.bandMembers = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "band_members",
		Help: "Members per leadership band in the most recent run",
	}, []string{"band"})

	m.runsInProgress = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "runs_in_progress",
		Help: "Assessment runs currently executing",
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    "store_latency_milliseconds",
		Help:    "Latency of store operations",
		Buckets: m.histogramBuckets,
	}, []string{"op"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "store_errors_total",
		Help: "Failed store operations",
	}, []string{"op"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "job_queue_size",
		Help: "Assessment jobs waiting in the queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "job_queue_capacity",
		Help: "Maximum number of queued assessment jobs",
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "jobs_enqueued_total",
		Help: "Assessment jobs accepted by the queue",
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "jobs_rejected_total",
		Help: "Assessment jobs refused by the queue",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "worker_count",
		Help: "Job workers started",
	})

	m.workerBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "worker_busy",
		Help: "Job workers currently running an assessment",
	})

	m.jobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    "job_latency_milliseconds",
		Help:    "Time from dequeue to job completion",
		Buckets: m.histogramBuckets,
	})

	m.jobErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "job_errors_total",
		Help: "Assessment jobs that failed",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "errors_by_component_total",
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "errors_by_endpoint_total",
		Help: "HTTP errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})
}

// Assessment engine

func RecordAssessmentRun(runType, outcome string) {
	if globalManager.enabled {
		globalManager.assessmentRuns.WithLabelValues(runType, outcome).Inc()
	}
}

func RecordAssessmentDuration(ms float64) {
	if globalManager.enabled {
		globalManager.assessmentDuration.Observe(ms)
	}
}

func RecordMembersScored(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.membersScored.Add(float64(n))
	}
}

func RecordCacheHit() {
	if globalManager.enabled {
		globalManager.cacheHits.Inc()
	}
}

func RecordTimelineDegraded() {
	if globalManager.enabled {
		globalManager.timelineDegraded.Inc()
	}
}

func UpdateBandMembers(band string, n int) {
	if globalManager.enabled {
		globalManager.bandMembers.WithLabelValues(band).Set(float64(n))
	}
}

func IncRunsInProgress() {
	if globalManager.enabled {
		globalManager.runsInProgress.Inc()
	}
}

func DecRunsInProgress() {
	if globalManager.enabled {
		globalManager.runsInProgress.Dec()
	}
}

// Store

func RecordStoreLatency(op string, ms float64) {
	if globalManager.enabled {
		globalManager.storeLatency.WithLabelValues(op).Observe(ms)
	}
}

func RecordStoreError(op string) {
	if globalManager.enabled {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// Jobs

func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func RecordJobEnqueued() {
	if globalManager.enabled {
		globalManager.queueEnqueued.Inc()
	}
}

func RecordJobRejected(reason string) {
	if globalManager.enabled {
		globalManager.queueRejected.WithLabelValues(reason).Inc()
	}
}

func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

func IncWorkerBusy() {
	if globalManager.enabled {
		globalManager.workerBusy.Inc()
	}
}

func DecWorkerBusy() {
	if globalManager.enabled {
		globalManager.workerBusy.Dec()
	}
}

func RecordJobLatency(ms float64) {
	if globalManager.enabled {
		globalManager.jobLatency.Observe(ms)
	}
}

func RecordJobError() {
	if globalManager.enabled {
		globalManager.jobErrors.Inc()
	}
}

// HTTP

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
	}
}

// Errors

func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
