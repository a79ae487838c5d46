// Package metrics provides Prometheus collectors for the catalog services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DetectionMetrics contains Prometheus metrics for detection service calls.
type DetectionMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHitsTotal  prometheus.Counter
}

// NewDetectionMetrics creates and registers new detection metrics.
func NewDetectionMetrics(registry *prometheus.Registry) (*DetectionMetrics, error) {
	m := &DetectionMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DetectionMetrics) initMetrics() error {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_requests_total",
			Help: "Total number of detection service requests",
		},
		[]string{"kind", "status"}, // status: success, error
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_errors_total",
			Help: "Total number of detection service errors",
		},
		[]string{"kind", "error_type"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "detection_request_duration_seconds",
			Help: "Time taken for detection service requests",
			// 100ms to ~100s, covering image calls through long video analyses
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"kind"},
	)

	m.cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "detection_cache_hits_total",
			Help: "Total number of detection results served from cache",
		},
	)

	return nil
}

// RecordRequest records a detection request with its outcome.
func (m *DetectionMetrics) RecordRequest(kind, status string) {
	m.requestsTotal.WithLabelValues(kind, status).Inc()
}

// RecordError records a detection error by type.
func (m *DetectionMetrics) RecordError(kind, errorType string) {
	m.errorsTotal.WithLabelValues(kind, errorType).Inc()
}

// RecordDuration records the duration of a detection request in seconds.
func (m *DetectionMetrics) RecordDuration(kind string, seconds float64) {
	m.requestDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordCacheHit records a detection result served from cache.
func (m *DetectionMetrics) RecordCacheHit() {
	m.cacheHitsTotal.Inc()
}

// Describe implements the Collector interface.
func (m *DetectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.cacheHitsTotal.Describe(ch)
}

// Collect implements the Collector interface.
func (m *DetectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.cacheHitsTotal.Collect(ch)
}
