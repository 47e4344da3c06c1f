// Package metrics provides Prometheus metrics for the MVP API service.
package metrics

import (
	"slices"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes used as the "result" label.
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupError    = "error"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Data metrics
	recordsTotal           prometheus.Gauge
	exampleLookups         *prometheus.CounterVec
	repositoryQueryLatency prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpPanics          prometheus.Counter

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// global is the manager and registry behind the package-level recorders.
type global struct {
	manager  *Manager
	registry *prometheus.Registry
}

var current atomic.Pointer[global] //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a fresh
// registry, keeping Go runtime collectors out of the exposition. It is meant
// to run once at startup; recorders called concurrently see either manager.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(slices.Clone(opts), WithPrometheusRegistry(registry))
	current.Store(&global{manager: NewManager(opts...), registry: registry})
}

func globalManager() *Manager {
	return current.Load().manager
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mvp",
		subsystem:        "api",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.recordsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("records_total"),
		Help:        "Number of records held by the data-access layer",
		ConstLabels: labels,
	})

	m.exampleLookups = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("example_lookups_total"),
			Help:        "Lookups of a single example by id, by result",
			ConstLabels: labels,
		},
		[]string{"result"},
	)

	m.repositoryQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("repository_query_latency_milliseconds"),
		Help:        "Latency of data-access queries in milliseconds",
		Buckets:     []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpPanics = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_panics_total"),
		Help:        "Handler panics recovered by the HTTP layer",
		ConstLabels: labels,
	})

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_type_total"),
			Help:        "Errors by type and severity",
			ConstLabels: labels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Errors by HTTP endpoint",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// UpdateRecordsTotal sets the number of records held in memory.
func (m *Manager) UpdateRecordsTotal(count int) {
	if m.enabled {
		m.recordsTotal.Set(float64(count))
	}
}

// RecordExampleLookup counts a by-id lookup with the given result label.
func (m *Manager) RecordExampleLookup(result string) {
	if m.enabled {
		m.exampleLookups.WithLabelValues(result).Inc()
	}
}

// RecordRepositoryQueryLatency records data-access latency in milliseconds.
func (m *Manager) RecordRepositoryQueryLatency(latencyMs float64) {
	if m.enabled {
		m.repositoryQueryLatency.Observe(latencyMs)
	}
}

// RecordHTTPRequest increments the HTTP requests counter.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m.enabled {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordHTTPPanic counts a recovered handler panic.
func (m *Manager) RecordHTTPPanic() {
	if m.enabled {
		m.httpPanics.Inc()
	}
}

// RecordErrorByType increments errors by type and severity.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if m.enabled {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint increments errors by endpoint.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage updates system memory usage.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if m.enabled {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount updates goroutine count.
func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if m.enabled {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// Package-level recorders backed by the global manager.

// UpdateRecordsTotal sets the records gauge on the global manager.
func UpdateRecordsTotal(count int) {
	globalManager().UpdateRecordsTotal(count)
}

// RecordExampleLookup counts a by-id lookup on the global manager.
func RecordExampleLookup(result string) {
	globalManager().RecordExampleLookup(result)
}

func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager().RecordRepositoryQueryLatency(latencyMs)
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager().RecordHTTPRequest(endpoint, method, statusCode)
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager().RecordHTTPRequestDuration(endpoint, method, statusCode, duration)
}

func RecordHTTPPanic() {
	globalManager().RecordHTTPPanic()
}

func RecordErrorByType(errorType, severity string) {
	globalManager().RecordErrorByType(errorType, severity)
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager().RecordErrorByEndpoint(endpoint, method, errorType)
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager().UpdateSystemMemoryUsage(bytes)
}

func UpdateSystemGoroutineCount(count int) {
	globalManager().UpdateSystemGoroutineCount(count)
}

func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager().RecordSystemGCPauseTime(pauseMs)
}

// GetRegistry returns the registry of the current global manager.
func GetRegistry() *prometheus.Registry {
	return current.Load().registry
}
