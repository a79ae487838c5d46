// Package observability provides metrics collection for the catalog service.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/birdtag/birdtag-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Detection *metrics.DetectionMetrics
	Ingest    *metrics.IngestMetrics
	Query     *metrics.QueryMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	detectionMetrics, err := metrics.NewDetectionMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection metrics: %w", err)
	}

	ingestMetrics, err := metrics.NewIngestMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest metrics: %w", err)
	}

	queryMetrics, err := metrics.NewQueryMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create query metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Detection: detectionMetrics,
		Ingest:    ingestMetrics,
		Query:     queryMetrics,
	}, nil
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
