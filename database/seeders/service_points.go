package seeders

import (
	"fmt"

	"queue-booking/models/servicepoint"

	"gorm.io/gorm"
)

// SeedServicePoints inserts the default counters when the table is empty.
func SeedServicePoints(db *gorm.DB) error {
	var count int64
	if err := db.Model(&servicepoint.ServicePoint{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count service points: %w", err)
	}
	if count > 0 {
		return nil
	}

	servicePoints := []servicepoint.ServicePoint{
		{Name: "Registration Counter", Location: "Building A, Floor 1", IsActive: true},
		{Name: "License Counter", Location: "Building A, Floor 2", IsActive: true},
		{Name: "Vehicle Inspection Station", Location: "Building B", IsActive: true},
		{Name: "Training Room", Location: "Building C, Floor 3", IsActive: true},
	}
	if err := db.Create(&servicePoints).Error; err != nil {
		return fmt.Errorf("seed service points: %w", err)
	}
	return nil
}
