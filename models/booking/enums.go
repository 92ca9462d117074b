package booking

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusActive  BookingStatus = "active"
	BookingStatusCalled  BookingStatus = "called"
	BookingStatusExpired BookingStatus = "expired"
	BookingStatusCancel  BookingStatus = "cancel"
)

// BookingType is one of the fixed service categories a counter offers.
type BookingType string

const (
	BookingTypeRegistration      BookingType = "registration"
	BookingTypeLicense           BookingType = "license"
	BookingTypeVehicleInspection BookingType = "vehicle-inspection"
	BookingTypePointRestoration  BookingType = "point-restoration-training"
	BookingTypeOtherServices     BookingType = "other-services"
)

// statusTransitions is the full transition table. A status absent from the
// map, or a target absent from its list, is an illegal transition.
var statusTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusActive: {BookingStatusCalled, BookingStatusExpired, BookingStatusCancel},
	BookingStatusCalled: {BookingStatusCancel},
}

// Helper methods for BookingStatus
func (bs BookingStatus) String() string {
	return string(bs)
}

func (bs BookingStatus) IsValid() bool {
	switch bs {
	case BookingStatusActive, BookingStatusCalled, BookingStatusExpired, BookingStatusCancel:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transition is allowed from this status.
func (bs BookingStatus) IsTerminal() bool {
	return len(statusTransitions[bs]) == 0
}

// CanTransitionTo reports whether moving from bs to target is a legal
// lifecycle transition. Terminal states (expired, cancel) never reactivate.
func (bs BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range statusTransitions[bs] {
		if allowed == target {
			return true
		}
	}
	return false
}

// GetAllBookingStatuses returns all valid booking statuses
func GetAllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusActive,
		BookingStatusCalled,
		BookingStatusExpired,
		BookingStatusCancel,
	}
}

// Helper methods for BookingType
func (bt BookingType) String() string {
	return string(bt)
}

func (bt BookingType) IsValid() bool {
	switch bt {
	case BookingTypeRegistration, BookingTypeLicense, BookingTypeVehicleInspection,
		BookingTypePointRestoration, BookingTypeOtherServices:
		return true
	default:
		return false
	}
}

// GetAllBookingTypes returns all valid booking types
func GetAllBookingTypes() []BookingType {
	return []BookingType{
		BookingTypeRegistration,
		BookingTypeLicense,
		BookingTypeVehicleInspection,
		BookingTypePointRestoration,
		BookingTypeOtherServices,
	}
}
