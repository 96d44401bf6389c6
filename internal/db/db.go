package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coldfleet-backend/config"
	"coldfleet-backend/internal/model"
)

// Init initializes the database connection, runs migrations and seeds the
// alert catalog.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if err := SeedAlertCatalog(db); err != nil {
		return nil, fmt.Errorf("alert catalog seed failed: %w", err)
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs the schema migrations for every entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Truck{},
		&model.Box{},
		&model.Route{},
		&model.CargoType{},
		&model.Sensor{},
		&model.SensorAssignment{},
		&model.SensorReading{},
		&model.AlertType{},
		&model.Trip{},
		&model.TripAlert{},
		&model.TrackingPoint{},
		&model.PushSubscription{},
	)
}

// SeedAlertCatalog ensures the fixed alert taxonomy exists. Names are stable
// identifiers; descriptions are refreshed only on first insert.
func SeedAlertCatalog(db *gorm.DB) error {
	catalog := []model.AlertType{
		{Name: model.AlertCancellation, Description: "Trip was canceled"},
		{Name: model.AlertRouteStarted, Description: "Trip departed and is in transit"},
		{Name: model.AlertRouteEnded, Description: "Trip arrived and was completed"},
		{Name: model.AlertHighTemperature, Description: "Cargo temperature above the allowed maximum"},
		{Name: model.AlertLowTemperature, Description: "Cargo temperature below the allowed minimum"},
	}

	for _, entry := range catalog {
		var existing model.AlertType
		if err := db.Where(model.AlertType{Name: entry.Name}).
			Attrs(model.AlertType{Description: entry.Description}).
			FirstOrCreate(&existing).Error; err != nil {
			return fmt.Errorf("seed alert type %q: %w", entry.Name, err)
		}
	}
	return nil
}
