package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// QueryMetrics contains Prometheus metrics for catalog query operations.
type QueryMetrics struct {
	registry *prometheus.Registry

	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	resultsTotal  *prometheus.CounterVec
}

// NewQueryMetrics creates and registers new query metrics.
func NewQueryMetrics(registry *prometheus.Registry) (*QueryMetrics, error) {
	m := &QueryMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *QueryMetrics) initMetrics() error {
	m.queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_queries_total",
			Help: "Total number of catalog queries",
		},
		[]string{"operation", "status"}, // operation: tags, species, file, thumbnail
	)

	m.queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Time taken to evaluate one catalog query",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation"},
	)

	m.resultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_query_results_total",
			Help: "Total number of records returned by catalog queries",
		},
		[]string{"operation"},
	)

	return nil
}

// RecordQuery records one query with its outcome.
func (m *QueryMetrics) RecordQuery(operation, status string) {
	m.queriesTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration records the evaluation time of one query in seconds.
func (m *QueryMetrics) RecordDuration(operation string, seconds float64) {
	m.queryDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordResults records the number of records a query returned.
func (m *QueryMetrics) RecordResults(operation string, count int) {
	m.resultsTotal.WithLabelValues(operation).Add(float64(count))
}

// Describe implements the Collector interface.
func (m *QueryMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.queriesTotal.Describe(ch)
	m.queryDuration.Describe(ch)
	m.resultsTotal.Describe(ch)
}

// Collect implements the Collector interface.
func (m *QueryMetrics) Collect(ch chan<- prometheus.Metric) {
	m.queriesTotal.Collect(ch)
	m.queryDuration.Collect(ch)
	m.resultsTotal.Collect(ch)
}
