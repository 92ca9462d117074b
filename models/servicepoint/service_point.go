package servicepoint

import (
	"time"
)

// ServicePoint is a counter or department offering a bounded set of booking
// types. It scopes queue numbering and slot availability.
type ServicePoint struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Location string `gorm:"type:varchar(255)" json:"location"`
	IsActive bool   `gorm:"type:bool;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the ServicePoint model
func (ServicePoint) TableName() string {
	return "service_points"
}
