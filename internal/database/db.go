package database

import (
	"fmt"

	"brigade/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL dialect
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
)

var DB *gorm.DB

// InitDB opens the database connection for the given dialect ("sqlite3"
// or "postgres") and runs migrations.
func InitDB(dialect, dsn string) error {
	var err error
	DB, err = gorm.Open(dialect, dsn)
	if err != nil {
		return fmt.Errorf("open %s database: %w", dialect, err)
	}
	Migrate(DB)
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// Migrate creates and updates all required tables.
func Migrate(db *gorm.DB) {
	db.AutoMigrate(
		&models.Station{},
		&models.Assignment{},
		&models.Order{},
		&models.OrderItem{},
		&models.RoutingRule{},
		&models.StationPerformanceRecord{},
	)
}
