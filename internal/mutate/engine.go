// Package mutate applies manual tag corrections and cascading deletion to
// catalog records and their stored media.
package mutate

import (
	"context"
	"log/slog"

	"github.com/birdtag/birdtag-go/internal/blobstore"
	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/logging"
	"github.com/birdtag/birdtag-go/internal/tags"
)

var logger = func() *slog.Logger {
	if l := logging.ForService("mutate"); l != nil {
		return l
	}
	return logging.NewDiscardLogger("mutate")
}()

// Op selects a manual tagging operation.
type Op int

const (
	// OpRemove deletes the named tags from matched records outright,
	// whatever their counts.
	OpRemove Op = 0
	// OpAdd merges the given counts into matched records.
	OpAdd Op = 1
)

func (op Op) valid() bool { return op == OpRemove || op == OpAdd }

// Engine mutates catalog records. Multi-URL operations are not
// transactional: each record is read, modified and re-saved on its own, and
// a failure on one URL does not roll back the others.
type Engine struct {
	store catalog.Store
	blobs blobstore.Store
}

// NewEngine creates a mutation engine.
func NewEngine(store catalog.Store, blobs blobstore.Store) *Engine {
	return &Engine{store: store, blobs: blobs}
}

// ApplyManualTags applies tag deltas ("tag,count" strings) to every record
// whose original URL is listed. Unresolvable URLs, missing records and
// malformed deltas are skipped. Returns the number of records touched.
func (e *Engine) ApplyManualTags(ctx context.Context, urls []string, op Op, deltas []string) (int, error) {
	if !op.valid() {
		return 0, errors.Newf("operation must be 0 (remove) or 1 (add), got %d", op).
			Category(errors.CategoryValidation).
			Component("mutate").
			Build()
	}
	if len(urls) == 0 {
		return 0, errors.Newf("at least one URL is required").
			Category(errors.CategoryValidation).
			Component("mutate").
			Build()
	}

	parsed := tags.ParseDeltas(deltas)
	if len(parsed) == 0 {
		return 0, errors.Newf("no usable tag deltas").
			Category(errors.CategoryValidation).
			Component("mutate").
			Build()
	}

	wanted := make(map[string]bool, len(urls))
	for _, u := range urls {
		wanted[u] = true
	}

	records, err := e.store.ScanAll()
	if err != nil {
		return 0, err
	}

	touched := 0
	for i := range records {
		if ctx.Err() != nil {
			return touched, ctx.Err()
		}
		record := &records[i]
		if !wanted[record.OriginalURL] {
			continue
		}

		applyDeltas(record, op, parsed)
		if err := e.store.Save(record); err != nil {
			logger.Warn("Saving mutated record failed",
				"object_id", record.ObjectID, "error", err)
			continue
		}
		touched++
	}

	logger.Info("Manual tags applied",
		"urls", len(urls), "op", int(op), "touched", touched)
	return touched, nil
}

// applyDeltas mutates one record's tags in place. Removing a record's last
// tag stores the emptied map as-is; the sentinel tag is substituted only at
// detection time, never here.
func applyDeltas(record *catalog.MediaRecord, op Op, deltas map[string]int) {
	updated := record.Tags.Clone()
	for tag, count := range deltas {
		switch op {
		case OpAdd:
			updated[tag] += float64(count)
		case OpRemove:
			delete(updated, tag)
		}
	}
	record.Tags = updated
}

// DeleteObjects removes the listed objects for one owner: the blob, the
// derived thumbnail for original images, and the catalog record. Returns the
// storage keys actually processed. A blob that cannot be deleted skips the
// whole item; a record-delete failure is logged but the key still counts.
func (e *Engine) DeleteObjects(ctx context.Context, urls []string, owner string) ([]string, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("at least one URL is required").
			Category(errors.CategoryValidation).
			Component("mutate").
			Build()
	}
	if owner == "" {
		owner = catalog.UnknownOwner
	}

	var processed []string
	for _, u := range urls {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		key, ok := e.blobs.ResolveKey(u)
		if !ok {
			logger.Warn("Skipping unresolvable URL", "url", u)
			continue
		}

		if err := e.blobs.Delete(key); err != nil {
			logger.Warn("Deleting blob failed, skipping", "key", key, "error", err)
			continue
		}
		if blobstore.IsOriginalImage(key) {
			if err := e.blobs.Delete(blobstore.ThumbnailKey(key)); err != nil {
				logger.Warn("Deleting thumbnail failed", "key", key, "error", err)
			}
		}

		if err := e.store.Delete(key, owner); err != nil {
			logger.Warn("Deleting catalog record failed", "key", key, "error", err)
		}
		processed = append(processed, key)
	}

	logger.Info("Objects deleted", "requested", len(urls), "processed", len(processed))
	return processed, nil
}
