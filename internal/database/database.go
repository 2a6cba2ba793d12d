package database

import (
	"fmt"

	"github.com/tradesense/tradesense-api/internal/database/migrations"
	"github.com/tradesense/tradesense-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate schemas
	err = db.AutoMigrate(
		&types.User{},
		&types.Challenge{},
		&types.Trade{},
		&types.NewsArticle{},
		&types.CommunityPost{},
		&types.Course{},
	)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddChallengeIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
