package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdtag/birdtag-go/internal/conf"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/tags"
)

func testRecord(objectID string) MediaRecord {
	return MediaRecord{
		ObjectID:     objectID,
		OwnerID:      "u1",
		Kind:         KindImage,
		OriginalURL:  "http://localhost:8080/objects/" + objectID,
		ThumbnailURL: "http://localhost:8080/objects/images/thumbnails/" + filepath.Base(objectID),
		Tags:         tags.TagMap{"sparrow": 3},
	}
}

// sqliteTestStore opens a SQLite store against a temporary database file.
func sqliteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "catalog.db")

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_SaveRoundTrip(t *testing.T) {
	store := sqliteTestStore(t)

	record := testRecord("images/original/img1.jpg")
	require.NoError(t, store.Save(&record))

	got, err := store.Get(record.ObjectID, record.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestSQLiteStore_SaveReplacesExisting(t *testing.T) {
	store := sqliteTestStore(t)

	record := testRecord("images/original/img1.jpg")
	require.NoError(t, store.Save(&record))

	// re-ingest overwrites, never merges
	record.Tags = tags.TagMap{"crow": 1}
	require.NoError(t, store.Save(&record))

	got, err := store.Get(record.ObjectID, record.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, tags.TagMap{"crow": 1}, got.Tags)

	all, err := store.ScanAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_OwnerScopesKey(t *testing.T) {
	store := sqliteTestStore(t)

	r1 := testRecord("images/original/img1.jpg")
	r2 := testRecord("images/original/img1.jpg")
	r2.OwnerID = "u2"
	r2.Tags = tags.TagMap{"owl": 2}

	require.NoError(t, store.Save(&r1))
	require.NoError(t, store.Save(&r2))

	all, err := store.ScanAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := store.Get("images/original/img1.jpg", "u2")
	require.NoError(t, err)
	assert.Equal(t, tags.TagMap{"owl": 2}, got.Tags)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := sqliteTestStore(t)

	_, err := store.Get("images/original/nothere.jpg", UnknownOwner)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSQLiteStore_DeleteMissingIsNoError(t *testing.T) {
	store := sqliteTestStore(t)

	assert.NoError(t, store.Delete("images/original/nothere.jpg", UnknownOwner))
}

func TestMemoryStore_Isolation(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	record := testRecord("images/original/img1.jpg")
	require.NoError(t, store.Save(&record))

	// mutating the caller's map must not leak into the store
	record.Tags["sparrow"] = 99

	got, err := store.Get(record.ObjectID, record.OwnerID)
	require.NoError(t, err)
	assert.InDelta(t, 3, got.Tags["sparrow"], 0)

	// mutating a scan result must not leak either
	all, err := store.ScanAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	all[0].Tags["sparrow"] = 42

	got, err = store.Get(record.ObjectID, record.OwnerID)
	require.NoError(t, err)
	assert.InDelta(t, 3, got.Tags["sparrow"], 0)
}

func TestNew_SelectsBackend(t *testing.T) {
	t.Parallel()

	sqliteSettings := &conf.Settings{}
	sqliteSettings.Output.SQLite.Enabled = true
	_, ok := New(sqliteSettings).(*SQLiteStore)
	assert.True(t, ok)

	mysqlSettings := &conf.Settings{}
	mysqlSettings.Output.MySQL.Enabled = true
	_, ok = New(mysqlSettings).(*MySQLStore)
	assert.True(t, ok)

	_, ok = New(&conf.Settings{}).(*MemoryStore)
	assert.True(t, ok)
}
