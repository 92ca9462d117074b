package database

import (
	"fmt"
	"os"

	"queue-booking/database/seeders"
	"queue-booking/logger"
	"queue-booking/models/booking"
	"queue-booking/models/log"
	"queue-booking/models/servicepoint"
	"queue-booking/models/user"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")

	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := Migrate(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := seeders.SeedServicePoints(DB); err != nil {
		logger.Error("Failed to seed service points", err)
		return nil, err
	}
	logger.Success("Service point seeding completed")

	return DB, nil
}

// Migrate runs auto migration plus the constraints and indexes the queue
// engine depends on. Shared with the test setup, which runs it against an
// in-memory database.
func Migrate(db *gorm.DB) error {
	// Stage 1: models without foreign keys
	stage1Models := []interface{}{
		&user.User{},
		&servicepoint.ServicePoint{},
	}
	for _, model := range stage1Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: models referencing stage 1
	stage2Models := []interface{}{
		&booking.Booking{},
		&booking.BookingStatusEvent{},
		&log.Log{},
	}
	for _, model := range stage2Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return createIndexes(db)
}

// createIndexes creates additional indexes for better performance. The
// composite unique index on (service_point_id, booking_date, queue_number)
// is created by AutoMigrate from the model tags.
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_user_scope ON bookings(user_id, service_point_id)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_booking_date ON bookings(booking_date)",
		"CREATE INDEX IF NOT EXISTS idx_users_citizen_id ON users(citizen_id)",
		"CREATE INDEX IF NOT EXISTS idx_users_line_id ON users(line_id)",
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
