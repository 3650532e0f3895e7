package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"hotel-booking-server/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func connectToDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DB_CONNECTION_STRING is not set in the environment variables")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to the database: %w", err)
	}
	return db, nil
}

func performMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.RoomAvailability{},
		&models.Booking{},
	)
}

// InitializeDB connects to Postgres and migrates the availability and
// booking tables.
func InitializeDB(dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := connectToDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := performMigrations(db); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database connection established")
	return db, nil
}
