package user

import (
	"time"
)

// User model. CitizenID is the local login identity; LineID is set when the
// account was created or linked through LINE login and may be the only
// identity a user has.
type User struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	CitizenID   string  `gorm:"type:varchar(20);index" json:"citizen_id"`
	FirstName   string  `gorm:"type:varchar(255)" json:"first_name"`
	LastName    string  `gorm:"type:varchar(255)" json:"last_name"`
	PhoneNumber string  `gorm:"type:varchar(20)" json:"phone_number"`
	LineID      *string `gorm:"type:varchar(255);index" json:"line_id,omitempty"`

	// Bcrypt hash; empty for LINE-only accounts until a password is set.
	Password string `gorm:"type:varchar(255)" json:"-"`

	IsStaff bool `gorm:"type:bool;default:false" json:"is_staff"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the User model
func (User) TableName() string {
	return "users"
}
