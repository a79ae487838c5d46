package ingest

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdtag/birdtag-go/internal/blobstore"
	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/tags"
)

type stubDetector struct {
	tags map[string]any
	err  error
}

func (d *stubDetector) Detect(_ context.Context, _ string, _ catalog.MediaKind, _ io.Reader) (map[string]any, error) {
	return d.tags, d.err
}

type stubNotifier struct {
	mu      sync.Mutex
	species [][]string
	urls    []string
}

func (n *stubNotifier) NotifyNewSpecies(species []string, fileURL string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.species = append(n.species, species)
	n.urls = append(n.urls, fileURL)
}

func testBlobs(t *testing.T) blobstore.Store {
	t.Helper()
	blobs, err := blobstore.NewFSStore(t.TempDir(), "https://cdn.example.com")
	require.NoError(t, err)
	return blobs
}

func landObject(t *testing.T, blobs blobstore.Store, key, content string) {
	t.Helper()
	require.NoError(t, blobs.Put(key, strings.NewReader(content)))
}

func TestPipeline_IngestsImage(t *testing.T) {
	store := catalog.NewMemoryStore()
	blobs := testBlobs(t)
	landObject(t, blobs, "images/original/crows.jpg", "jpeg-bytes")

	detector := &stubDetector{tags: map[string]any{"crow": 3, "sparrow": 1}}
	pipeline := NewPipeline(store, blobs, detector, nil, nil)

	record, err := pipeline.Run(context.Background(), ObjectLanded{
		Key:   "images/original/crows.jpg",
		Owner: "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "images/original/crows.jpg", record.ObjectID)
	assert.Equal(t, "user-1", record.OwnerID)
	assert.Equal(t, catalog.KindImage, record.Kind)
	assert.Equal(t, "https://cdn.example.com/images/original/crows.jpg", record.OriginalURL)
	assert.Equal(t, "https://cdn.example.com/images/thumbnails/crows.jpg", record.ThumbnailURL)
	assert.Equal(t, tags.TagMap{"crow": 3, "sparrow": 1}, record.Tags)

	stored, err := store.Get("images/original/crows.jpg", "user-1")
	require.NoError(t, err)
	assert.Equal(t, record.Tags, stored.Tags)
}

func TestPipeline_VideoHasNoThumbnail(t *testing.T) {
	store := catalog.NewMemoryStore()
	blobs := testBlobs(t)
	landObject(t, blobs, "videos/original/clip.mp4", "mp4-bytes")

	pipeline := NewPipeline(store, blobs, &stubDetector{tags: map[string]any{"owl": 1}}, nil, nil)

	record, err := pipeline.Run(context.Background(), ObjectLanded{Key: "videos/original/clip.mp4"})
	require.NoError(t, err)
	assert.Equal(t, catalog.KindVideo, record.Kind)
	assert.Equal(t, catalog.NoThumbnail, record.ThumbnailURL)
	assert.Equal(t, catalog.UnknownOwner, record.OwnerID)
}

func TestPipeline_DetectionFailureStoresSentinel(t *testing.T) {
	store := catalog.NewMemoryStore()
	blobs := testBlobs(t)
	landObject(t, blobs, "images/original/blurry.jpg", "jpeg-bytes")

	detector := &stubDetector{err: errors.NewStd("detector down")}
	pipeline := NewPipeline(store, blobs, detector, nil, nil)

	record, err := pipeline.Run(context.Background(), ObjectLanded{Key: "images/original/blurry.jpg"})
	require.NoError(t, err)
	assert.Equal(t, tags.Sentinel(), record.Tags)
}

func TestPipeline_UnusableTagsStoreSentinel(t *testing.T) {
	store := catalog.NewMemoryStore()
	blobs := testBlobs(t)
	landObject(t, blobs, "audio/original/silence.wav", "wav-bytes")

	// every raw entry is dropped by sanitization
	detector := &stubDetector{tags: map[string]any{"crow": "many", "sparrow": -2}}
	pipeline := NewPipeline(store, blobs, detector, nil, nil)

	record, err := pipeline.Run(context.Background(), ObjectLanded{Key: "audio/original/silence.wav"})
	require.NoError(t, err)
	assert.Equal(t, tags.Sentinel(), record.Tags)
}

func TestPipeline_MissingObjectIsFatal(t *testing.T) {
	pipeline := NewPipeline(catalog.NewMemoryStore(), testBlobs(t), &stubDetector{}, nil, nil)

	_, err := pipeline.Run(context.Background(), ObjectLanded{Key: "images/original/nope.jpg"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryBlobStorage))
}

func TestPipeline_NotifiesOnlyNovelSpecies(t *testing.T) {
	store := catalog.NewMemoryStore()
	blobs := testBlobs(t)
	landObject(t, blobs, "images/original/first.jpg", "a")
	landObject(t, blobs, "images/original/second.jpg", "b")

	notifier := &stubNotifier{}
	detector := &stubDetector{tags: map[string]any{"Crow": 1, "owl": 2}}
	pipeline := NewPipeline(store, blobs, detector, notifier, nil)

	_, err := pipeline.Run(context.Background(), ObjectLanded{Key: "images/original/first.jpg"})
	require.NoError(t, err)
	require.Len(t, notifier.species, 1)
	assert.ElementsMatch(t, []string{"Crow", "owl"}, notifier.species[0])

	// same species again, case-folded: nothing novel
	detector.tags = map[string]any{"crow": 5, "OWL": 1}
	_, err = pipeline.Run(context.Background(), ObjectLanded{Key: "images/original/second.jpg"})
	require.NoError(t, err)
	assert.Len(t, notifier.species, 1)
}

func TestPipeline_SentinelNeverNovel(t *testing.T) {
	store := catalog.NewMemoryStore()
	blobs := testBlobs(t)
	landObject(t, blobs, "images/original/empty.jpg", "a")

	notifier := &stubNotifier{}
	pipeline := NewPipeline(store, blobs, &stubDetector{tags: map[string]any{}}, notifier, nil)

	_, err := pipeline.Run(context.Background(), ObjectLanded{Key: "images/original/empty.jpg"})
	require.NoError(t, err)
	assert.Empty(t, notifier.species)
}

func TestPipeline_ReingestReplacesTags(t *testing.T) {
	store := catalog.NewMemoryStore()
	blobs := testBlobs(t)
	landObject(t, blobs, "images/original/again.jpg", "a")

	detector := &stubDetector{tags: map[string]any{"crow": 2, "sparrow": 1}}
	pipeline := NewPipeline(store, blobs, detector, nil, nil)

	_, err := pipeline.Run(context.Background(), ObjectLanded{Key: "images/original/again.jpg", Owner: "u"})
	require.NoError(t, err)

	detector.tags = map[string]any{"owl": 1}
	record, err := pipeline.Run(context.Background(), ObjectLanded{Key: "images/original/again.jpg", Owner: "u"})
	require.NoError(t, err)

	// replacement, not a merge with the prior tags
	assert.Equal(t, tags.TagMap{"owl": 1}, record.Tags)
	stored, err := store.Get("images/original/again.jpg", "u")
	require.NoError(t, err)
	assert.Equal(t, tags.TagMap{"owl": 1}, stored.Tags)
}
