package catalog

import (
	"fmt"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/birdtag/birdtag-go/internal/conf"
)

// SQLiteStore implements Store backed by a SQLite database file.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection and runs migrations.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Output.SQLite.Path
	if !filepath.IsAbs(path) {
		path = filepath.Clean(path)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", path)
}

// Close is a no-op for SQLite; the underlying pool is released on exit.
func (store *SQLiteStore) Close() error {
	return nil
}
