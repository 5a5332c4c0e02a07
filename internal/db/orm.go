package db

import (
	"fmt"
	"log"

	gormModels "infinite-experiment/kontrollburo/internal/models/gorm"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var PgDB *gorm.DB

func InitPostgresORM(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(
		&gormModels.EndorsementActivity{},
		&gormModels.RosterStatus{},
		&gormModels.SyncHistory{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	PgDB = db
	log.Println("Connected to Postgres via GORM")
	return db, nil
}
