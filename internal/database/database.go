package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gvakproject/SteamAnaliticWorker/internal/database/migrations"
	"github.com/gvakproject/SteamAnaliticWorker/internal/types"
)

// NewDatabase opens the sqlite store at path and brings the schema up to
// date. Foreign keys are enabled so order records cascade on item delete.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate applies the schema to an already-open connection. Split out so
// tests can run against their own throwaway databases.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&types.Item{},
		&types.BuyOrder{},
		&types.SellOrder{},
	)
	if err != nil {
		return err
	}

	if err := migrations.AddOrderIndexes(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
