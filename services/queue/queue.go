package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"gorm.io/gorm"

	bookingModel "queue-booking/models/booking"
)

// refZone is the fixed reference time zone for expiry and day boundaries,
// independent of the server's local time zone.
var refZone = time.FixedZone("UTC+7", 7*60*60)

const (
	// staleAfter is how long an active booking may wait before the expiry
	// sweep marks it expired.
	staleAfter = 15 * time.Minute

	// maxCreateAttempts bounds retries when two creations race for the same
	// queue number in one scope.
	maxCreateAttempts = 5

	// maxClaimAttempts bounds retries when concurrent callers race for the
	// head of the queue.
	maxClaimAttempts = 5
)

// DailySlots is the fixed set of bookable time labels per day, in serving order.
var DailySlots = []string{"08:30", "13:00"}

// queueOrder sorts bookings by serving priority.
const queueOrder = "booking_date ASC, booking_time ASC, queue_number ASC"

// Engine owns every state transition of a booking and the derivation of the
// next queue number and next caller. It holds no in-memory state; all
// contention is resolved through the database.
type Engine struct {
	db *gorm.DB
}

// NewEngine creates a new queue lifecycle engine
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Now returns the current time in the reference zone.
func (e *Engine) Now() time.Time {
	return time.Now().In(refZone)
}

// Today returns the current calendar date in the reference zone as "2006-01-02".
func (e *Engine) Today() string {
	return now.With(e.Now()).BeginningOfDay().Format("2006-01-02")
}

// CreateBooking assigns the next queue number in the (servicePointID,
// bookingDate) scope and inserts an active booking. The read-max-then-insert
// runs in a transaction and the composite unique index on the scope plus
// queue number turns a lost race into a duplicate-key error, which retries
// the whole transaction with a fresh maximum.
func (e *Engine) CreateBooking(userID, servicePointID uint, bookingType bookingModel.BookingType, bookingDate, bookingTime string) (*bookingModel.Booking, error) {
	if !bookingType.IsValid() {
		return nil, ErrInvalidBookingType
	}

	var created bookingModel.Booking
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		err := e.db.Transaction(func(tx *gorm.DB) error {
			var maxQueue int
			if err := tx.Model(&bookingModel.Booking{}).
				Where("service_point_id = ? AND booking_date = ?", servicePointID, bookingDate).
				Select("COALESCE(MAX(queue_number), 0)").
				Scan(&maxQueue).Error; err != nil {
				return err
			}

			created = bookingModel.Booking{
				Reference:      uuid.NewString(),
				UserID:         userID,
				ServicePointID: servicePointID,
				BookingType:    bookingType,
				BookingDate:    bookingDate,
				BookingTime:    bookingTime,
				QueueNumber:    maxQueue + 1,
				Status:         bookingModel.BookingStatusActive,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}

			return recordStatusEvent(tx, created.ID, bookingModel.BookingStatusActive)
		})
		if err == nil {
			return &created, nil
		}
		if isDuplicateKey(err) {
			// Lost the queue-number race; re-read the maximum and try again.
			continue
		}
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownReference
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return nil, fmt.Errorf("create booking: queue number contention for service point %d on %s", servicePointID, bookingDate)
}

// ExpireStaleQueues marks every active booking older than staleAfter as
// expired, then returns the earliest remaining active booking, or nil if the
// queue is empty. The sweep and the read run in one transaction so the read
// observes the sweep's effects. Repeated calls with no newly-stale rows are
// no-ops.
func (e *Engine) ExpireStaleQueues() (*bookingModel.Booking, error) {
	nowRef := e.Now()

	var next *bookingModel.Booking
	err := e.db.Transaction(func(tx *gorm.DB) error {
		// Elapsed time is computed here rather than in SQL so the comparison
		// is driver-independent and anchored to the reference clock.
		var active []bookingModel.Booking
		if err := tx.Where("status = ?", bookingModel.BookingStatusActive).
			Find(&active).Error; err != nil {
			return err
		}

		for i := range active {
			if nowRef.Sub(active[i].CreatedAt) <= staleAfter {
				continue
			}
			if _, err := transition(tx, &active[i], bookingModel.BookingStatusExpired); err != nil {
				return err
			}
		}

		var head bookingModel.Booking
		err := tx.Where("status = ?", bookingModel.BookingStatusActive).
			Order(queueOrder).
			First(&head).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		next = &head
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("expire stale queues: %w", err)
	}
	return next, nil
}

// SelectNextCaller atomically claims the earliest active booking and marks it
// called. When concurrent callers race for the same booking, the conditional
// update lets exactly one win; losers retry against the next candidate. An
// empty queue returns nil, not an error.
func (e *Engine) SelectNextCaller() (*bookingModel.Booking, error) {
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		var candidate bookingModel.Booking
		err := e.db.Where("status = ?", bookingModel.BookingStatusActive).
			Order(queueOrder).
			First(&candidate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("select next caller: %w", err)
		}

		var claimed bool
		err = e.db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			claimed, txErr = transition(tx, &candidate, bookingModel.BookingStatusCalled)
			return txErr
		})
		if err != nil {
			return nil, fmt.Errorf("select next caller: %w", err)
		}
		if claimed {
			return &candidate, nil
		}
		// A concurrent caller claimed this booking first; pick the next one.
	}
	return nil, fmt.Errorf("select next caller: contention exhausted %d attempts", maxClaimAttempts)
}

// CancelBooking moves a booking to cancel. Only active and called bookings
// may be cancelled; expired or already-cancelled rows fail with
// ErrInvalidTransition.
func (e *Engine) CancelBooking(bookingID uint) error {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var b bookingModel.Booking
		if err := tx.First(&b, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		claimed, err := transition(tx, &b, bookingModel.BookingStatusCancel)
		if err != nil {
			return err
		}
		if !claimed {
			// The row moved to another status between the read and the
			// update; report it as an illegal transition.
			return fmt.Errorf("%w: booking %d changed status concurrently", ErrInvalidTransition, bookingID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrInvalidTransition) {
			return err
		}
		return fmt.Errorf("cancel booking %d: %w", bookingID, err)
	}
	return nil
}

// GetAvailableSlots returns the fixed daily slots not held by an active or
// called booking in the scope, preserving the fixed set's order. Cancelled
// and expired bookings release their slot.
func (e *Engine) GetAvailableSlots(servicePointID uint, bookingDate string) ([]string, error) {
	var taken []string
	err := e.db.Model(&bookingModel.Booking{}).
		Where("service_point_id = ? AND booking_date = ? AND status IN ?",
			servicePointID, bookingDate,
			[]bookingModel.BookingStatus{bookingModel.BookingStatusActive, bookingModel.BookingStatusCalled}).
		Pluck("booking_time", &taken).Error
	if err != nil {
		return nil, fmt.Errorf("get available slots: %w", err)
	}

	takenSet := make(map[string]bool, len(taken))
	for _, t := range taken {
		takenSet[t] = true
	}

	available := make([]string, 0, len(DailySlots))
	for _, slot := range DailySlots {
		if !takenSet[slot] {
			available = append(available, slot)
		}
	}
	return available, nil
}

// CheckUserBooking returns the user's earliest active or called booking at
// the service point, or nil if none exists.
func (e *Engine) CheckUserBooking(userID, servicePointID uint) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := e.db.Where("user_id = ? AND service_point_id = ? AND status IN ?",
		userID, servicePointID,
		[]bookingModel.BookingStatus{bookingModel.BookingStatusActive, bookingModel.BookingStatusCalled}).
		Order("booking_date ASC, booking_time ASC").
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check user booking: %w", err)
	}
	return &b, nil
}

// GetBookingByQueueNumber looks a booking up by queue number within its
// (servicePointID, bookingDate) scope, the only scope in which queue numbers
// are unique. Returns nil if no booking matches.
func (e *Engine) GetBookingByQueueNumber(servicePointID uint, bookingDate string, queueNumber int) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := e.db.Where("service_point_id = ? AND booking_date = ? AND queue_number = ?",
		servicePointID, bookingDate, queueNumber).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking by queue number: %w", err)
	}
	return &b, nil
}

// GetBookingByID returns a booking by primary key, or ErrBookingNotFound.
func (e *Engine) GetBookingByID(bookingID uint) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := e.db.First(&b, bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	return &b, nil
}

// GetBookingByReference looks a booking up by its UUID reference, the
// identifier embedded in QR check-in links. Returns nil if no booking matches.
func (e *Engine) GetBookingByReference(reference string) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := e.db.Where("reference = ?", reference).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking by reference: %w", err)
	}
	return &b, nil
}

// GetAllBookings returns every booking with its user and service point.
func (e *Engine) GetAllBookings() ([]bookingModel.Booking, error) {
	var bookings []bookingModel.Booking
	if err := e.db.Preload("User").Preload("ServicePoint").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("get all bookings: %w", err)
	}
	return bookings, nil
}

// GetBookingsByUser returns the user's bookings ordered by date and time.
func (e *Engine) GetBookingsByUser(userID uint) ([]bookingModel.Booking, error) {
	var bookings []bookingModel.Booking
	err := e.db.Where("user_id = ?", userID).
		Order("booking_date ASC, booking_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("get bookings by user %d: %w", userID, err)
	}
	return bookings, nil
}

// ResetDailyQueues permanently deletes every booking dated strictly before
// the current calendar date in the reference zone, along with its status
// events. Returns the number of bookings removed.
func (e *Engine) ResetDailyQueues() (int64, error) {
	today := e.Today()

	var removed int64
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id IN (?)",
			tx.Model(&bookingModel.Booking{}).Select("id").Where("booking_date < ?", today)).
			Delete(&bookingModel.BookingStatusEvent{}).Error; err != nil {
			return err
		}

		res := tx.Where("booking_date < ?", today).Delete(&bookingModel.Booking{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset daily queues: %w", err)
	}
	return removed, nil
}

// ResetAllQueues permanently deletes every booking and status event
// regardless of date or status. Administrative use only.
func (e *Engine) ResetAllQueues() error {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&bookingModel.BookingStatusEvent{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&bookingModel.Booking{}).Error
	})
	if err != nil {
		return fmt.Errorf("reset all queues: %w", err)
	}
	return nil
}

// transition validates the move against the status state machine and applies
// it with a conditional update. The WHERE clause on the current status makes
// the claim atomic: when RowsAffected is zero a concurrent writer moved the
// row first and the caller must re-read. On success the in-memory booking is
// updated and a status event is recorded.
func transition(tx *gorm.DB, b *bookingModel.Booking, target bookingModel.BookingStatus) (bool, error) {
	if !b.Status.CanTransitionTo(target) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
	}

	res := tx.Model(&bookingModel.Booking{}).
		Where("id = ? AND status = ?", b.ID, b.Status).
		Update("status", target)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	b.Status = target
	return true, recordStatusEvent(tx, b.ID, target)
}

// recordStatusEvent appends an audit row for a status change.
func recordStatusEvent(tx *gorm.DB, bookingID uint, status bookingModel.BookingStatus) error {
	return tx.Create(&bookingModel.BookingStatusEvent{
		BookingID: bookingID,
		Status:    status,
	}).Error
}
