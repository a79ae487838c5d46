// Package query evaluates catalog searches: threshold tag queries, species
// presence queries, query-by-file-content and thumbnail reverse lookup.
package query

import (
	"log/slog"
	"time"

	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/logging"
	"github.com/birdtag/birdtag-go/internal/observability/metrics"
	"github.com/birdtag/birdtag-go/internal/tags"
)

var logger = func() *slog.Logger {
	if l := logging.ForService("query"); l != nil {
		return l
	}
	return logging.NewDiscardLogger("query")
}()

// ErrEmptyQuery is returned when a query names no species at all. An empty
// query never means match-everything.
var ErrEmptyQuery = errors.NewStd("query must contain at least one species")

// Summary is one query result. Tags is populated only by file-content
// queries.
type Summary struct {
	OriginalURL  string      `json:"original_url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Kind         string      `json:"kind"`
	Tags         tags.TagMap `json:"tags,omitempty"`
}

// Engine evaluates queries over a full catalog scan. Matching logic is
// independent of how candidate records are produced, so a secondary index
// can later replace the scan.
type Engine struct {
	store   catalog.Store
	metrics *metrics.QueryMetrics
}

// NewEngine creates a query engine over the given store. m may be nil.
func NewEngine(store catalog.Store, m *metrics.QueryMetrics) *Engine {
	return &Engine{store: store, metrics: m}
}

// MatchAll returns records whose tag counts meet or exceed every queried
// threshold. An empty query is a validation error, never a match-everything.
func (e *Engine) MatchAll(q tags.TagMap) ([]Summary, error) {
	if len(q) == 0 {
		return nil, errors.New(ErrEmptyQuery).
			Category(errors.CategoryValidation).
			Component("query").
			Build()
	}

	return e.scan("tags", func(r *catalog.MediaRecord) bool {
		return meetsThresholds(r.Tags, q)
	})
}

// MatchAny returns records containing at least one of the given species with
// a strictly positive count.
func (e *Engine) MatchAny(species []string) ([]Summary, error) {
	if len(species) == 0 {
		return nil, errors.New(ErrEmptyQuery).
			Category(errors.CategoryValidation).
			Component("query").
			Build()
	}

	return e.scan("species", func(r *catalog.MediaRecord) bool {
		for _, s := range species {
			if r.Tags[s] > 0 {
				return true
			}
		}
		return false
	})
}

// MatchFromContent parses uploaded query-file content and returns records
// matching any parsed tag/count pair, deduplicated by original URL, with the
// full tag map attached.
func (e *Engine) MatchFromContent(content string) ([]Summary, error) {
	parsed := tags.ParseContent(content)
	if !parsed.Valid() {
		e.record("file", "error", 0, 0)
		return nil, errors.Newf("query file contains no usable tag entries").
			Category(errors.CategoryFileParsing).
			Component("query").
			Build()
	}

	start := time.Now()
	records, err := e.store.ScanAll()
	if err != nil {
		e.record("file", "error", 0, 0)
		return nil, err
	}

	seen := make(map[string]bool)
	var results []Summary
	for i := range records {
		r := &records[i]
		if seen[r.OriginalURL] {
			continue
		}
		for _, pair := range parsed.Pairs {
			if r.Tags[pair.Tag] >= pair.Count {
				seen[r.OriginalURL] = true
				s := summarize(r)
				s.Tags = r.Tags.Clone()
				results = append(results, s)
				break
			}
		}
	}

	e.record("file", "success", len(results), time.Since(start).Seconds())
	return results, nil
}

// OriginalFromThumbnail resolves a thumbnail URL back to its original URL.
// Lookup is bare URL equality, except that the "NO_URL" placeholder carried
// by thumbnail-less records is never treated as a match: querying the
// placeholder itself returns not-found instead of an arbitrary video or
// audio record.
func (e *Engine) OriginalFromThumbnail(thumbnailURL string) (string, error) {
	if thumbnailURL == "" {
		return "", errors.Newf("thumbnail URL is required").
			Category(errors.CategoryValidation).
			Component("query").
			Build()
	}

	start := time.Now()
	records, err := e.store.ScanAll()
	if err != nil {
		e.record("thumbnail", "error", 0, 0)
		return "", err
	}

	for i := range records {
		if records[i].ThumbnailURL == thumbnailURL && records[i].HasThumbnail() {
			e.record("thumbnail", "success", 1, time.Since(start).Seconds())
			return records[i].OriginalURL, nil
		}
	}

	e.record("thumbnail", "success", 0, time.Since(start).Seconds())
	return "", errors.Newf("no record with thumbnail %s", thumbnailURL).
		Category(errors.CategoryNotFound).
		Context("thumbnail_url", thumbnailURL).
		Component("query").
		Build()
}

// scan evaluates a predicate over all records and summarizes the matches.
func (e *Engine) scan(operation string, match func(*catalog.MediaRecord) bool) ([]Summary, error) {
	start := time.Now()
	records, err := e.store.ScanAll()
	if err != nil {
		e.record(operation, "error", 0, 0)
		return nil, err
	}

	var results []Summary
	for i := range records {
		if match(&records[i]) {
			results = append(results, summarize(&records[i]))
		}
	}

	e.record(operation, "success", len(results), time.Since(start).Seconds())
	logger.Debug("Query evaluated",
		"operation", operation,
		"scanned", len(records),
		"matched", len(results))
	return results, nil
}

func (e *Engine) record(operation, status string, results int, seconds float64) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordQuery(operation, status)
	if status == "success" {
		e.metrics.RecordResults(operation, results)
		e.metrics.RecordDuration(operation, seconds)
	}
}

// meetsThresholds reports whether counts satisfies every queried threshold.
func meetsThresholds(counts, q tags.TagMap) bool {
	for species, threshold := range q {
		if counts[species] < threshold {
			return false
		}
	}
	return true
}

func summarize(r *catalog.MediaRecord) Summary {
	return Summary{
		OriginalURL:  r.OriginalURL,
		ThumbnailURL: r.ThumbnailURL,
		Kind:         string(r.Kind),
	}
}
