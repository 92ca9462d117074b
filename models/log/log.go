package log

import (
	"time"
)

// Log is a persisted HTTP request/response audit entry. Destructive queue
// operations (daily and full resets) are traced through these rows.
type Log struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Method       string    `gorm:"type:varchar(10);not null;index" json:"method"`
	URL          string    `gorm:"type:text;not null" json:"url"`
	ClientIP     string    `gorm:"type:varchar(45)" json:"client_ip"`
	RequestBody  string    `gorm:"type:text" json:"request_body"`
	ResponseBody string    `gorm:"type:text" json:"response_body"`
	StatusCode   int       `gorm:"type:int;index" json:"status_code"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName sets the table name for the Log model
func (Log) TableName() string {
	return "logs"
}
