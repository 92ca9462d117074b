package booking

import (
	"time"

	"queue-booking/models/servicepoint"
	"queue-booking/models/user"
)

// Booking represents one queue reservation at a service point. Queue numbers
// are only unique within a (service point, booking date) scope; the composite
// unique index is the backstop for concurrent number assignment.
type Booking struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference string `gorm:"type:varchar(36);not null;unique" json:"reference"`

	// Foreign key for users relationship
	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	// Foreign key for service point relationship
	ServicePointID uint                      `gorm:"not null;uniqueIndex:idx_bookings_scope_queue,priority:1" json:"service_point_id"`
	ServicePoint   servicepoint.ServicePoint `gorm:"foreignKey:ServicePointID" json:"service_point"`

	BookingType BookingType `gorm:"type:varchar(50);not null" json:"booking_type"`

	// BookingDate is stored as "2006-01-02" so lexicographic order matches
	// calendar order across database engines.
	BookingDate string `gorm:"type:varchar(10);not null;uniqueIndex:idx_bookings_scope_queue,priority:2" json:"booking_date"`
	BookingTime string `gorm:"type:varchar(5);not null" json:"booking_time"`
	QueueNumber int    `gorm:"not null;uniqueIndex:idx_bookings_scope_queue,priority:3" json:"queue_number"`

	Status    BookingStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}
