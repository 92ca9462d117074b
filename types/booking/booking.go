package booking

import (
	"fmt"
)

// BookingCreateRequest is the payload for reserving a queue slot.
type BookingCreateRequest struct {
	UserID         uint   `json:"user_id"`
	ServicePointID uint   `json:"service_point_id"`
	BookingType    string `json:"booking_type"`
	BookingDate    string `json:"booking_date"`
	BookingTime    string `json:"booking_time"`
}

func (b BookingCreateRequest) Validate() error {
	if b.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	if b.ServicePointID == 0 {
		return fmt.Errorf("service_point_id is required")
	}
	if b.BookingType == "" {
		return fmt.Errorf("booking_type is required")
	}
	if b.BookingDate == "" {
		return fmt.Errorf("booking_date is required")
	}
	if b.BookingTime == "" {
		return fmt.Errorf("booking_time is required")
	}
	return nil
}

// CheckInRequest is the payload for counter check-in by user identity.
type CheckInRequest struct {
	UserID         uint `json:"user_id"`
	ServicePointID uint `json:"service_point_id"`
}

func (r CheckInRequest) Validate() error {
	if r.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	if r.ServicePointID == 0 {
		return fmt.Errorf("service_point_id is required")
	}
	return nil
}
