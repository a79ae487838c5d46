package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains Prometheus metrics for the ingestion pipeline.
type IngestMetrics struct {
	registry *prometheus.Registry

	runsTotal         *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	sentinelTotal     prometheus.Counter
	newSpeciesTotal   prometheus.Counter
	notificationTotal *prometheus.CounterVec
}

// NewIngestMetrics creates and registers new ingestion metrics.
func NewIngestMetrics(registry *prometheus.Registry) (*IngestMetrics, error) {
	m := &IngestMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *IngestMetrics) initMetrics() error {
	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Total number of ingestion pipeline runs",
		},
		[]string{"kind", "status"}, // status: success, error
	)

	m.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Time taken for one ingestion pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"kind"},
	)

	m.sentinelTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_sentinel_substitutions_total",
			Help: "Total number of runs that stored the sentinel tag",
		},
	)

	m.newSpeciesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_new_species_total",
			Help: "Total number of species seen for the first time",
		},
	)

	m.notificationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_notifications_total",
			Help: "Total number of new-species notifications enqueued",
		},
		[]string{"status"},
	)

	return nil
}

// RecordRun records one pipeline run with its outcome.
func (m *IngestMetrics) RecordRun(kind, status string) {
	m.runsTotal.WithLabelValues(kind, status).Inc()
}

// RecordDuration records the duration of one pipeline run in seconds.
func (m *IngestMetrics) RecordDuration(kind string, seconds float64) {
	m.runDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordSentinel records a run that fell back to the sentinel tag.
func (m *IngestMetrics) RecordSentinel() {
	m.sentinelTotal.Inc()
}

// RecordNewSpecies records species seen for the first time.
func (m *IngestMetrics) RecordNewSpecies(count int) {
	m.newSpeciesTotal.Add(float64(count))
}

// RecordNotification records a new-species notification attempt.
func (m *IngestMetrics) RecordNotification(status string) {
	m.notificationTotal.WithLabelValues(status).Inc()
}

// Describe implements the Collector interface.
func (m *IngestMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.runsTotal.Describe(ch)
	m.runDuration.Describe(ch)
	m.sentinelTotal.Describe(ch)
	m.newSpeciesTotal.Describe(ch)
	m.notificationTotal.Describe(ch)
}

// Collect implements the Collector interface.
func (m *IngestMetrics) Collect(ch chan<- prometheus.Metric) {
	m.runsTotal.Collect(ch)
	m.runDuration.Collect(ch)
	m.sentinelTotal.Collect(ch)
	m.newSpeciesTotal.Collect(ch)
	m.notificationTotal.Collect(ch)
}
