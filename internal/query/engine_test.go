package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/tags"
)

func seededEngine(t *testing.T) *Engine {
	t.Helper()
	store := catalog.NewMemoryStore()
	records := []catalog.MediaRecord{
		{
			ObjectID:     "images/original/crows.jpg",
			OwnerID:      "u1",
			Kind:         catalog.KindImage,
			OriginalURL:  "https://cdn.example.com/images/original/crows.jpg",
			ThumbnailURL: "https://cdn.example.com/images/thumbnails/crows.jpg",
			Tags:         tags.TagMap{"crow": 3, "sparrow": 1},
		},
		{
			ObjectID:     "videos/original/mixed.mp4",
			OwnerID:      "u1",
			Kind:         catalog.KindVideo,
			OriginalURL:  "https://cdn.example.com/videos/original/mixed.mp4",
			ThumbnailURL: catalog.NoThumbnail,
			Tags:         tags.TagMap{"crow": 1, "owl": 2},
		},
		{
			ObjectID:     "audio/original/dawn.wav",
			OwnerID:      "u2",
			Kind:         catalog.KindAudio,
			OriginalURL:  "https://cdn.example.com/audio/original/dawn.wav",
			ThumbnailURL: catalog.NoThumbnail,
			Tags:         tags.Sentinel(),
		},
	}
	for i := range records {
		require.NoError(t, store.Save(&records[i]))
	}
	return NewEngine(store, nil)
}

func originalURLs(results []Summary) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.OriginalURL)
	}
	return urls
}

func TestMatchAll_Thresholds(t *testing.T) {
	engine := seededEngine(t)

	results, err := engine.MatchAll(tags.TagMap{"crow": 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/images/original/crows.jpg"},
		originalURLs(results))

	// lowering the threshold can only widen the result set
	results, err = engine.MatchAll(tags.TagMap{"crow": 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://cdn.example.com/images/original/crows.jpg",
		"https://cdn.example.com/videos/original/mixed.mp4",
	}, originalURLs(results))
}

func TestMatchAll_AllThresholdsMustHold(t *testing.T) {
	engine := seededEngine(t)

	results, err := engine.MatchAll(tags.TagMap{"crow": 1, "owl": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/videos/original/mixed.mp4"},
		originalURLs(results))

	results, err = engine.MatchAll(tags.TagMap{"crow": 1, "heron": 1})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMatchAll_EmptyQueryRejected(t *testing.T) {
	engine := seededEngine(t)

	_, err := engine.MatchAll(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyQuery))
	assert.True(t, errors.IsValidation(err))
}

func TestMatchAll_SummariesOmitTags(t *testing.T) {
	engine := seededEngine(t)

	results, err := engine.MatchAll(tags.TagMap{"crow": 3})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Tags)
	assert.Equal(t, "image", results[0].Kind)
	assert.Equal(t, "https://cdn.example.com/images/thumbnails/crows.jpg", results[0].ThumbnailURL)
}

func TestMatchAny_StrictlyPositive(t *testing.T) {
	engine := seededEngine(t)

	results, err := engine.MatchAny([]string{"owl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/videos/original/mixed.mp4"},
		originalURLs(results))

	results, err = engine.MatchAny([]string{"heron", "crow"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMatchAny_EmptiedRecordNeverMatchesSentinel(t *testing.T) {
	store := catalog.NewMemoryStore()
	// a record whose last tag was manually removed
	record := catalog.MediaRecord{
		ObjectID:     "images/original/blank.jpg",
		OwnerID:      "u1",
		Kind:         catalog.KindImage,
		OriginalURL:  "https://cdn.example.com/images/original/blank.jpg",
		ThumbnailURL: "https://cdn.example.com/images/thumbnails/blank.jpg",
		Tags:         tags.TagMap{},
	}
	require.NoError(t, store.Save(&record))
	engine := NewEngine(store, nil)

	results, err := engine.MatchAny([]string{tags.SentinelSpecies})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = engine.MatchAll(tags.TagMap{tags.SentinelSpecies: 1})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMatchAny_EmptyListRejected(t *testing.T) {
	engine := seededEngine(t)

	_, err := engine.MatchAny(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyQuery))
}

func TestMatchFromContent_JSONObject(t *testing.T) {
	engine := seededEngine(t)

	results, err := engine.MatchFromContent(`{"crow": 2}`)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://cdn.example.com/images/original/crows.jpg", results[0].OriginalURL)
	// file-driven results carry the full tag map
	assert.Equal(t, tags.TagMap{"crow": 3, "sparrow": 1}, results[0].Tags)
}

func TestMatchFromContent_LineBasedDedups(t *testing.T) {
	engine := seededEngine(t)

	// both lines match the same record: it appears once
	results, err := engine.MatchFromContent("crow: 2\nsparrow\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/images/original/crows.jpg"},
		originalURLs(results))
}

func TestMatchFromContent_PairsActAsUnion(t *testing.T) {
	engine := seededEngine(t)

	results, err := engine.MatchFromContent("crow: 3\nowl: 1\n")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://cdn.example.com/images/original/crows.jpg",
		"https://cdn.example.com/videos/original/mixed.mp4",
	}, originalURLs(results))
}

func TestMatchFromContent_InvalidContentRejected(t *testing.T) {
	engine := seededEngine(t)

	_, err := engine.MatchFromContent("# only comments\n\n")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestOriginalFromThumbnail(t *testing.T) {
	engine := seededEngine(t)

	original, err := engine.OriginalFromThumbnail("https://cdn.example.com/images/thumbnails/crows.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/original/crows.jpg", original)
}

func TestOriginalFromThumbnail_NotFound(t *testing.T) {
	engine := seededEngine(t)

	_, err := engine.OriginalFromThumbnail("https://cdn.example.com/images/thumbnails/nope.jpg")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestOriginalFromThumbnail_SentinelNeverMatches(t *testing.T) {
	engine := seededEngine(t)

	// two records carry the NO_URL sentinel; neither may resolve
	_, err := engine.OriginalFromThumbnail(catalog.NoThumbnail)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
