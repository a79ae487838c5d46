package catalog

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/birdtag/birdtag-go/internal/conf"
)

// MySQLStore implements Store backed by a MySQL database.
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the MySQL database connection and runs migrations.
func (store *MySQLStore) Open() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		store.Settings.Output.MySQL.Username, store.Settings.Output.MySQL.Password,
		store.Settings.Output.MySQL.Host, store.Settings.Output.MySQL.Port,
		store.Settings.Output.MySQL.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		storeLogger.Error("Failed to open MySQL database",
			"host", store.Settings.Output.MySQL.Host,
			"database", store.Settings.Output.MySQL.Database,
			"error", err)
		return fmt.Errorf("failed to open MySQL database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "MySQL",
		store.Settings.Output.MySQL.Host+"/"+store.Settings.Output.MySQL.Database)
}

// Close closes the underlying SQL connection pool.
func (store *MySQLStore) Close() error {
	if store.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
