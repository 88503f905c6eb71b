// Package database opens the gorm connection and migrates the schema.
package database

import (
	"fmt"
	"log"

	"github.com/lyrion-studio/lyrion-api/config"
	"github.com/lyrion-studio/lyrion-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to postgres (production) or sqlite (local runs, tests).
func Open(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}
	log.Printf("✅ Connected to %s database", dialectName(cfg.Driver))
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.AccessCode{},
		&models.AccessCodeConversion{},
		&models.ProcessedEvent{},
		&models.SessionDocument{},
	)
}

// OpenMemory returns a migrated in-memory sqlite database. Used by tests
// and `lyrion serve --dev`.
func OpenMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func dialectName(driver string) string {
	if driver == "" {
		return "postgres"
	}
	return driver
}
