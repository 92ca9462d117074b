package queue

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrInvalidBookingType is returned before any storage access when the
	// requested booking type is not one of the fixed categories.
	ErrInvalidBookingType = errors.New("invalid booking type")

	// ErrUnknownReference is returned when the referenced user or service
	// point does not exist.
	ErrUnknownReference = errors.New("user or service point does not exist")

	// ErrBookingNotFound is returned when an operation targets a booking
	// that does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidTransition is returned when a booking cannot legally move to
	// the requested status (e.g. cancelling an already-expired booking).
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// isDuplicateKey reports whether err is a unique-constraint violation. The
// string checks cover drivers that predate GORM's error translation.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// isForeignKeyViolation reports whether err is a foreign-key constraint
// violation from the storage layer.
func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "violates foreign key constraint")
}
