// Package ingest runs the object ingestion pipeline: fetch a landed media
// object, detect species, sanitize the tags and store one catalog record.
package ingest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/birdtag/birdtag-go/internal/blobstore"
	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/logging"
	"github.com/birdtag/birdtag-go/internal/observability/metrics"
	"github.com/birdtag/birdtag-go/internal/tags"
)

var logger = func() *slog.Logger {
	if l := logging.ForService("ingest"); l != nil {
		return l
	}
	return logging.NewDiscardLogger("ingest")
}()

// ObjectLanded describes a media object that finished landing in the blob
// store and is ready for ingestion.
type ObjectLanded struct {
	Key   string // blob store key of the original object
	Owner string // uploading principal, empty if unrecoverable
}

// Detector classifies a media object's content into raw species tags.
type Detector interface {
	Detect(ctx context.Context, objectKey string, kind catalog.MediaKind, content io.Reader) (map[string]any, error)
}

// Notifier announces species never seen before in the catalog.
type Notifier interface {
	NotifyNewSpecies(species []string, fileURL string)
}

// Pipeline ingests landed objects. Detection, sanitization and novelty
// failures degrade the result but never abort a run; only a failure to read
// the object itself is fatal.
type Pipeline struct {
	store    catalog.Store
	blobs    blobstore.Store
	detector Detector
	notifier Notifier
	metrics  *metrics.IngestMetrics
}

// NewPipeline assembles a pipeline. notifier and m may be nil.
func NewPipeline(store catalog.Store, blobs blobstore.Store, detector Detector, notifier Notifier, m *metrics.IngestMetrics) *Pipeline {
	return &Pipeline{
		store:    store,
		blobs:    blobs,
		detector: detector,
		notifier: notifier,
		metrics:  m,
	}
}

// Run ingests one landed object and returns the stored record.
func (p *Pipeline) Run(ctx context.Context, event ObjectLanded) (catalog.MediaRecord, error) {
	start := time.Now()
	kind := blobstore.MediaKindForKey(event.Key)

	content, err := p.blobs.Open(event.Key)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordRun(string(kind), "error")
		}
		return catalog.MediaRecord{}, errors.Newf("opening landed object: %w", err).
			Category(errors.CategoryBlobStorage).
			Context("object_key", event.Key).
			Component("ingest").
			Build()
	}

	tagMap := p.detect(ctx, event.Key, kind, content)
	if err := content.Close(); err != nil {
		logger.Warn("Closing landed object failed", "object_key", event.Key, "error", err)
	}

	record := catalog.MediaRecord{
		ObjectID:     event.Key,
		OwnerID:      ownerOrUnknown(event.Owner),
		Kind:         kind,
		OriginalURL:  p.blobs.URL(event.Key),
		ThumbnailURL: catalog.NoThumbnail,
		Tags:         tagMap,
	}
	if blobstore.IsOriginalImage(event.Key) {
		record.ThumbnailURL = p.blobs.URL(blobstore.ThumbnailKey(event.Key))
	}

	p.announceNovel(record.Tags, record.OriginalURL)

	if err := p.store.Save(&record); err != nil {
		if p.metrics != nil {
			p.metrics.RecordRun(string(kind), "error")
		}
		return catalog.MediaRecord{}, err
	}

	if p.metrics != nil {
		p.metrics.RecordRun(string(kind), "success")
		p.metrics.RecordDuration(string(kind), time.Since(start).Seconds())
	}
	logger.Info("Object ingested",
		"object_key", event.Key,
		"owner", record.OwnerID,
		"kind", kind,
		"tag_count", len(record.Tags))
	return record, nil
}

// detect runs detection and sanitization, substituting the sentinel tag when
// either yields nothing usable.
func (p *Pipeline) detect(ctx context.Context, key string, kind catalog.MediaKind, content io.Reader) tags.TagMap {
	raw, err := p.detector.Detect(ctx, key, kind, content)
	if err != nil {
		logger.Warn("Detection failed, storing sentinel tag",
			"object_key", key, "error", err)
		p.recordSentinel()
		return tags.Sentinel()
	}

	tagMap := tags.Sanitize(raw)
	if len(tagMap) == 0 {
		logger.Info("No usable detections, storing sentinel tag", "object_key", key)
		p.recordSentinel()
		return tags.Sentinel()
	}
	return tagMap
}

func (p *Pipeline) recordSentinel() {
	if p.metrics != nil {
		p.metrics.RecordSentinel()
	}
}

// announceNovel fires one best-effort notification for species not yet
// present anywhere in the catalog. Comparison is case-insensitive; the
// sentinel tag never counts as novel.
func (p *Pipeline) announceNovel(tagMap tags.TagMap, fileURL string) {
	if p.notifier == nil {
		return
	}

	records, err := p.store.ScanAll()
	if err != nil {
		logger.Warn("Novelty scan failed, skipping notification", "error", err)
		if p.metrics != nil {
			p.metrics.RecordNotification("error")
		}
		return
	}

	seen := make(map[string]bool)
	for i := range records {
		for species := range records[i].Tags {
			seen[strings.ToLower(species)] = true
		}
	}

	var novel []string
	for species := range tagMap {
		if species == tags.SentinelSpecies {
			continue
		}
		if !seen[strings.ToLower(species)] {
			novel = append(novel, species)
		}
	}
	if len(novel) == 0 {
		return
	}

	p.notifier.NotifyNewSpecies(novel, fileURL)
	if p.metrics != nil {
		p.metrics.RecordNewSpecies(len(novel))
		p.metrics.RecordNotification("sent")
	}
}

func ownerOrUnknown(owner string) string {
	if strings.TrimSpace(owner) == "" {
		return catalog.UnknownOwner
	}
	return owner
}
