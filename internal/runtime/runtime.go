// Package runtime assembles the long-lived service components from settings
// and carries build-time metadata injected at startup.
package runtime

import (
	"github.com/birdtag/birdtag-go/internal/blobstore"
	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/conf"
	"github.com/birdtag/birdtag-go/internal/detection"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/ingest"
	"github.com/birdtag/birdtag-go/internal/mutate"
	"github.com/birdtag/birdtag-go/internal/notify"
	"github.com/birdtag/birdtag-go/internal/observability"
	"github.com/birdtag/birdtag-go/internal/query"
	"github.com/birdtag/birdtag-go/internal/thumbnail"
)

// Context contains build-time metadata that is not user-configurable.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// Core bundles the wired service components shared by the server and the
// CLI ingest path.
type Core struct {
	Settings *conf.Settings
	Store    catalog.Store
	Blobs    blobstore.Store
	Detector *detection.Client
	Notifier *notify.Service
	Metrics  *observability.Metrics
	Pipeline *ingest.Pipeline
	Intake   *ingest.Intake
	Query    *query.Engine
	Mutate   *mutate.Engine
}

// BuildCore wires all components from settings. The returned Core owns the
// catalog store connection and the notification worker; callers must Close it.
func BuildCore(settings *conf.Settings) (*Core, error) {
	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, errors.Newf("initializing metrics: %w", err).
			Category(errors.CategoryConfiguration).
			Component("runtime").
			Build()
	}

	store := catalog.New(settings)
	if err := store.Open(); err != nil {
		return nil, err
	}

	blobs, err := blobstore.NewFSStore(settings.Blob.Path, settings.Blob.PublicBaseURL)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	detector, err := detection.NewClient(detection.ConfigFromSettings(settings))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	detection.SetMetrics(metrics.Detection)

	notifier := notify.NewServiceFromSettings(settings)

	pipeline := ingest.NewPipeline(store, blobs, detector, notifier, metrics.Ingest)
	generator := thumbnail.NewGenerator(settings.Thumbnail.MaxPixels, settings.Thumbnail.Quality)

	return &Core{
		Settings: settings,
		Store:    store,
		Blobs:    blobs,
		Detector: detector,
		Notifier: notifier,
		Metrics:  metrics,
		Pipeline: pipeline,
		Intake:   ingest.NewIntake(blobs, generator, pipeline),
		Query:    query.NewEngine(store, metrics.Query),
		Mutate:   mutate.NewEngine(store, blobs),
	}, nil
}

// Close shuts down the notification worker and the catalog store.
func (c *Core) Close() error {
	c.Notifier.Shutdown()
	detection.SetMetrics(nil)
	return c.Store.Close()
}
