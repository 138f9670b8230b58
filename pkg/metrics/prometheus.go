// Package metrics provides Prometheus metrics for the admetrics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus instrument exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Calculation metrics
	kpiCalculations     *prometheus.CounterVec
	attributionRuns     *prometheus.CounterVec
	attributionJourney  prometheus.Histogram
	attributionDropped  prometheus.Counter
	allocationRuns      prometheus.Counter
	allocationBreaches  prometheus.Counter
	predictionRuns      *prometheus.CounterVec
	calculationFailures *prometheus.CounterVec

	// History ingestion
	historyIngested  prometheus.Counter
	historyDuplicate prometheus.Counter
	historyRejected  *prometheus.CounterVec
	historyRecords   prometheus.Gauge

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected *prometheus.CounterVec
	workerCount   prometheus.Gauge
	workerErrors  prometheus.Counter
	workerLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of the exposition.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its instruments.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "admetrics",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every instrument
	auto := promauto.With(m.registry)

	m.kpiCalculations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kpi_calculations_total",
		Help:      "KPI calculations by metric and classification band",
	}, []string{"metric", "band"})

	m.attributionRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attribution_runs_total",
		Help:      "Attribution runs by model",
	}, []string{"model"})

	m.attributionJourney = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attribution_journey_touchpoints",
		Help:      "Touchpoints per attributed journey after the lookback filter",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
	})

	m.attributionDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attribution_touchpoints_dropped_total",
		Help:      "Touchpoints discarded by the lookback window",
	})

	m.allocationRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "allocation_runs_total",
		Help:      "Budget allocation plans computed",
	})

	m.allocationBreaches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "allocation_cap_breaches_total",
		Help:      "Plans where the residual correction pushed a channel outside its share bounds",
	})

	m.predictionRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_runs_total",
		Help:      "Performance predictions by channel",
	}, []string{"channel"})

	m.calculationFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calculation_failures_total",
		Help:      "Rejected calculation requests by component and reason",
	}, []string{"component", "reason"})

	m.historyIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_records_ingested_total",
		Help:      "Campaign-day records written to the history store",
	})

	m.historyDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_records_duplicate_total",
		Help:      "Campaign-day records skipped because their id was already seen",
	})

	m.historyRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_records_rejected_total",
		Help:      "Campaign-day records rejected by reason",
	}, []string{"reason"})

	m.historyRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_records",
		Help:      "Records currently held by the history store",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the ingestion queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Capacity of the ingestion queue",
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_rejected_total",
		Help:      "Enqueue attempts rejected by reason",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of ingestion workers",
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Errors raised while processing queued records",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Time spent processing one queued record",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Number of goroutines",
	})
}

func (m *Manager) on() bool { return m != nil && m.enabled }

// RecordKPI counts one KPI calculation.
func RecordKPI(metric, band string) {
	if globalManager.on() {
		globalManager.kpiCalculations.WithLabelValues(metric, band).Inc()
	}
}

// RecordAttribution counts one attribution run and the journey size it saw.
func RecordAttribution(model string, touchpoints, dropped int) {
	if !globalManager.on() {
		return
	}
	globalManager.attributionRuns.WithLabelValues(model).Inc()
	globalManager.attributionJourney.Observe(float64(touchpoints))
	if dropped > 0 {
		globalManager.attributionDropped.Add(float64(dropped))
	}
}

// RecordAllocation counts one allocation plan.
func RecordAllocation(capBreached bool) {
	if !globalManager.on() {
		return
	}
	globalManager.allocationRuns.Inc()
	if capBreached {
		globalManager.allocationBreaches.Inc()
	}
}

// RecordPrediction counts one performance prediction.
func RecordPrediction(channel string) {
	if globalManager.on() {
		globalManager.predictionRuns.WithLabelValues(channel).Inc()
	}
}

// RecordCalculationFailure counts a rejected calculation.
func RecordCalculationFailure(component, reason string) {
	if globalManager.on() {
		globalManager.calculationFailures.WithLabelValues(component, reason).Inc()
	}
}

// RecordHistoryIngested counts records written to the history store.
func RecordHistoryIngested() {
	if globalManager.on() {
		globalManager.historyIngested.Inc()
	}
}

// RecordHistoryDuplicate counts records skipped as duplicates.
func RecordHistoryDuplicate() {
	if globalManager.on() {
		globalManager.historyDuplicate.Inc()
	}
}

// RecordHistoryRejected counts records rejected for reason.
func RecordHistoryRejected(reason string) {
	if globalManager.on() {
		globalManager.historyRejected.WithLabelValues(reason).Inc()
	}
}

// UpdateHistoryRecords sets the number of stored history records.
func UpdateHistoryRecords(count int) {
	if globalManager.on() {
		globalManager.historyRecords.Set(float64(count))
	}
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	if globalManager.on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueRejected counts a rejected enqueue.
func RecordQueueRejected(reason string) {
	if globalManager.on() {
		globalManager.queueRejected.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	if globalManager.on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerError counts a worker processing error.
func RecordWorkerError() {
	if globalManager.on() {
		globalManager.workerErrors.Inc()
	}
}

// RecordWorkerLatency observes the time spent on one record.
func RecordWorkerLatency(latencyMs float64) {
	if globalManager.on() {
		globalManager.workerLatency.Observe(latencyMs)
	}
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
