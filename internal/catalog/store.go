package catalog

import (
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/birdtag/birdtag-go/internal/conf"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/logging"
)

var storeLogger *slog.Logger

func init() {
	storeLogger = logging.ForService("catalog")
	if storeLogger == nil {
		storeLogger = logging.NewDiscardLogger("catalog")
	}
}

// Store abstracts the catalog persistence layer. It offers per-key
// read/replace with no cross-key transactions and no version check:
// concurrent read-modify-write against the same key is last-write-wins.
// ScanAll serves the query engine; a future secondary index can replace the
// full scan without changing matching logic.
type Store interface {
	Open() error
	Get(objectID, ownerID string) (MediaRecord, error)
	Save(record *MediaRecord) error
	Delete(objectID, ownerID string) error
	ScanAll() ([]MediaRecord, error)
	Close() error
}

// New creates a Store based on the provided configuration.
func New(settings *conf.Settings) Store {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return NewMemoryStore()
	}
}

// DataStore implements Store operations shared by the GORM-backed stores.
type DataStore struct {
	DB *gorm.DB
}

// Get retrieves the record for (objectID, ownerID).
func (ds *DataStore) Get(objectID, ownerID string) (MediaRecord, error) {
	var entity recordEntity
	err := ds.DB.Where("object_id = ? AND owner_id = ?", objectID, ownerID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MediaRecord{}, errors.Newf("record not found: %s", objectID).
				Category(errors.CategoryNotFound).
				Context("object_id", objectID).
				Component("catalog").
				Build()
		}
		return MediaRecord{}, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("object_id", objectID).
			Component("catalog").
			Build()
	}
	return entity.toRecord()
}

// Save inserts or fully replaces the record keyed by (ObjectID, OwnerID).
func (ds *DataStore) Save(record *MediaRecord) error {
	entity, err := toEntity(record)
	if err != nil {
		return err
	}
	err = ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "object_id"}, {Name: "owner_id"}},
		UpdateAll: true,
	}).Create(&entity).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("object_id", record.ObjectID).
			Component("catalog").
			Build()
	}
	return nil
}

// Delete removes the record for (objectID, ownerID). Deleting a missing
// record is not an error.
func (ds *DataStore) Delete(objectID, ownerID string) error {
	err := ds.DB.Where("object_id = ? AND owner_id = ?", objectID, ownerID).
		Delete(&recordEntity{}).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("object_id", objectID).
			Component("catalog").
			Build()
	}
	return nil
}

// ScanAll loads every catalog record. Queries observe a point-in-time
// snapshot with no isolation guarantee relative to concurrent writers.
func (ds *DataStore) ScanAll() ([]MediaRecord, error) {
	var entities []recordEntity
	if err := ds.DB.Find(&entities).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("catalog").
			Build()
	}

	records := make([]MediaRecord, 0, len(entities))
	for i := range entities {
		record, err := entities[i].toRecord()
		if err != nil {
			storeLogger.Warn("Skipping record with undecodable tags",
				"object_id", entities[i].ObjectID,
				"error", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&recordEntity{}); err != nil {
		return errors.Newf("failed to auto-migrate %s database: %w", dbType, err).
			Category(errors.CategoryDatabase).
			Component("catalog").
			Build()
	}
	if debug {
		storeLogger.Debug("Database connection initialized",
			"type", dbType,
			"connection", connectionInfo)
	}
	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
