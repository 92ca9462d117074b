package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"queue-booking/database"
	bookingModel "queue-booking/models/booking"
	"queue-booking/models/servicepoint"
	userModel "queue-booking/models/user"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	// A single connection keeps the in-memory database alive and shared.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := []userModel.User{
		{CitizenID: "1100200300401", FirstName: "Somchai", LastName: "J.", PhoneNumber: "0812345678"},
		{CitizenID: "1100200300402", FirstName: "Suda", LastName: "K.", PhoneNumber: "0898765432"},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}

	points := []servicepoint.ServicePoint{
		{Name: "Registration Counter", IsActive: true},
		{Name: "License Counter", IsActive: true},
	}
	if err := db.Create(&points).Error; err != nil {
		t.Fatalf("seed service points: %v", err)
	}

	return NewEngine(db), db
}

func mustCreate(t *testing.T, e *Engine, userID, servicePointID uint, date, slot string) *bookingModel.Booking {
	t.Helper()
	b, err := e.CreateBooking(userID, servicePointID, bookingModel.BookingTypeRegistration, date, slot)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

// reload fetches a booking by primary key into a fresh struct. Reusing a
// dest whose ID is already set would make GORM add the old key as a query
// condition and silently return stale fields.
func reload(t *testing.T, db *gorm.DB, bookingID uint) bookingModel.Booking {
	t.Helper()
	var b bookingModel.Booking
	if err := db.First(&b, bookingID).Error; err != nil {
		t.Fatalf("reload booking %d: %v", bookingID, err)
	}
	return b
}

func backdate(t *testing.T, db *gorm.DB, bookingID uint, age time.Duration) {
	t.Helper()
	past := time.Now().Add(-age)
	if err := db.Model(&bookingModel.Booking{}).Where("id = ?", bookingID).
		Update("created_at", past).Error; err != nil {
		t.Fatalf("backdate booking %d: %v", bookingID, err)
	}
}

func TestCreateBookingAssignsSequentialQueueNumbers(t *testing.T) {
	e, _ := newTestEngine(t)

	for want := 1; want <= 5; want++ {
		b := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
		if b.QueueNumber != want {
			t.Fatalf("queue number = %d, want %d", b.QueueNumber, want)
		}
		if b.Status != bookingModel.BookingStatusActive {
			t.Fatalf("status = %q, want active", b.Status)
		}
	}

	// A different scope numbers independently from 1.
	other := mustCreate(t, e, 1, 2, "2025-01-10", "08:30")
	if other.QueueNumber != 1 {
		t.Fatalf("other scope queue number = %d, want 1", other.QueueNumber)
	}
	sameDayLater := mustCreate(t, e, 1, 1, "2025-01-11", "08:30")
	if sameDayLater.QueueNumber != 1 {
		t.Fatalf("other date queue number = %d, want 1", sameDayLater.QueueNumber)
	}
}

func TestCreateBookingInvalidType(t *testing.T) {
	e, db := newTestEngine(t)

	_, err := e.CreateBooking(1, 1, "walk-in", "2025-01-10", "08:30")
	if !errors.Is(err, ErrInvalidBookingType) {
		t.Fatalf("err = %v, want ErrInvalidBookingType", err)
	}

	var count int64
	db.Model(&bookingModel.Booking{}).Count(&count)
	if count != 0 {
		t.Fatalf("bookings stored = %d, want 0", count)
	}
}

func TestCreateBookingUnknownReference(t *testing.T) {
	e, _ := newTestEngine(t)

	if _, err := e.CreateBooking(999, 1, bookingModel.BookingTypeLicense, "2025-01-10", "08:30"); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("unknown user err = %v, want ErrUnknownReference", err)
	}
	if _, err := e.CreateBooking(1, 999, bookingModel.BookingTypeLicense, "2025-01-10", "08:30"); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("unknown service point err = %v, want ErrUnknownReference", err)
	}
}

func TestCreateBookingAssignsReference(t *testing.T) {
	e, _ := newTestEngine(t)

	first := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	second := mustCreate(t, e, 1, 1, "2025-01-10", "13:00")
	if first.Reference == "" || second.Reference == "" {
		t.Fatal("booking reference not assigned")
	}
	if first.Reference == second.Reference {
		t.Fatal("booking references must be unique")
	}
}

func TestCancelBookingScenario(t *testing.T) {
	e, db := newTestEngine(t)

	first := mustCreate(t, e, 1, 1, "2024-01-10", "08:30")
	second := mustCreate(t, e, 2, 1, "2024-01-10", "13:00")
	if first.QueueNumber != 1 || second.QueueNumber != 2 {
		t.Fatalf("queue numbers = %d, %d, want 1, 2", first.QueueNumber, second.QueueNumber)
	}

	if err := e.CancelBooking(first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	cancelled := reload(t, db, first.ID)
	if cancelled.Status != bookingModel.BookingStatusCancel {
		t.Fatalf("cancelled status = %q, want cancel", cancelled.Status)
	}
	if cancelled.QueueNumber != 1 {
		t.Fatalf("cancelled queue number changed to %d", cancelled.QueueNumber)
	}

	surviving := reload(t, db, second.ID)
	if surviving.QueueNumber != 2 {
		t.Fatalf("surviving queue number changed to %d", surviving.QueueNumber)
	}
	if surviving.Status != bookingModel.BookingStatusActive {
		t.Fatalf("surviving status = %q, want active", surviving.Status)
	}

	next, err := e.SelectNextCaller()
	if err != nil {
		t.Fatalf("select next caller: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("next caller = %+v, want booking %d", next, second.ID)
	}
	if next.Status != bookingModel.BookingStatusCalled {
		t.Fatalf("next caller status = %q, want called", next.Status)
	}
}

func TestCancelBookingNotFound(t *testing.T) {
	e, _ := newTestEngine(t)

	if err := e.CancelBooking(42); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestCancelBookingTerminalStatesRejected(t *testing.T) {
	e, db := newTestEngine(t)

	b := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	backdate(t, db, b.ID, 20*time.Minute)
	if _, err := e.ExpireStaleQueues(); err != nil {
		t.Fatalf("expire: %v", err)
	}

	if err := e.CancelBooking(b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel expired err = %v, want ErrInvalidTransition", err)
	}

	// Cancelling twice is equally illegal.
	c := mustCreate(t, e, 1, 1, "2025-01-10", "13:00")
	if err := e.CancelBooking(c.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := e.CancelBooking(c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel err = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelCalledBookingAllowed(t *testing.T) {
	e, _ := newTestEngine(t)

	b := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	if _, err := e.SelectNextCaller(); err != nil {
		t.Fatalf("select next caller: %v", err)
	}
	if err := e.CancelBooking(b.ID); err != nil {
		t.Fatalf("cancel called booking: %v", err)
	}
}

func TestExpireStaleQueues(t *testing.T) {
	e, db := newTestEngine(t)

	stale := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	fresh := mustCreate(t, e, 2, 1, "2025-01-10", "13:00")
	called := mustCreate(t, e, 1, 2, "2025-01-09", "08:30")
	backdate(t, db, stale.ID, 20*time.Minute)
	backdate(t, db, called.ID, 30*time.Minute)

	// The called booking is old but no longer active; it must not be touched.
	if _, err := e.SelectNextCaller(); err != nil {
		t.Fatalf("select next caller: %v", err)
	}

	next, err := e.ExpireStaleQueues()
	if err != nil {
		t.Fatalf("expire: %v", err)
	}

	if got := reload(t, db, stale.ID); got.Status != bookingModel.BookingStatusExpired {
		t.Fatalf("stale status = %q, want expired", got.Status)
	}
	if got := reload(t, db, fresh.ID); got.Status != bookingModel.BookingStatusActive {
		t.Fatalf("fresh status = %q, want active", got.Status)
	}
	if got := reload(t, db, called.ID); got.Status != bookingModel.BookingStatusCalled {
		t.Fatalf("called status = %q, want called", got.Status)
	}

	if next == nil || next.ID != fresh.ID {
		t.Fatalf("next = %+v, want booking %d", next, fresh.ID)
	}

	// Idempotent: running again changes nothing and reports the same head.
	again, err := e.ExpireStaleQueues()
	if err != nil {
		t.Fatalf("second expire: %v", err)
	}
	if again == nil || again.ID != fresh.ID {
		t.Fatalf("second expire next = %+v, want booking %d", again, fresh.ID)
	}
}

func TestExpireStaleQueuesEmpty(t *testing.T) {
	e, _ := newTestEngine(t)

	next, err := e.ExpireStaleQueues()
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if next != nil {
		t.Fatalf("next = %+v, want nil", next)
	}
}

func TestSelectNextCallerOrdering(t *testing.T) {
	e, _ := newTestEngine(t)

	later := mustCreate(t, e, 1, 1, "2025-01-11", "08:30")
	afternoon := mustCreate(t, e, 1, 1, "2025-01-10", "13:00")
	morning := mustCreate(t, e, 2, 1, "2025-01-10", "08:30")
	_ = later

	first, err := e.SelectNextCaller()
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if first == nil || first.ID != morning.ID {
		t.Fatalf("first call = %+v, want booking %d", first, morning.ID)
	}

	second, err := e.SelectNextCaller()
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if second == nil || second.ID != afternoon.ID {
		t.Fatalf("second call = %+v, want booking %d", second, afternoon.ID)
	}
}

func TestSelectNextCallerEmptyQueue(t *testing.T) {
	e, _ := newTestEngine(t)

	next, err := e.SelectNextCaller()
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if next != nil {
		t.Fatalf("next = %+v, want nil", next)
	}
}

func TestSelectNextCallerConcurrent(t *testing.T) {
	e, _ := newTestEngine(t)

	b := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*bookingModel.Booking, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.SelectNextCaller()
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != nil {
			winners++
			if results[i].ID != b.ID {
				t.Fatalf("caller %d claimed booking %d, want %d", i, results[i].ID, b.ID)
			}
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestGetAvailableSlots(t *testing.T) {
	e, _ := newTestEngine(t)

	slots, err := e.GetAvailableSlots(1, "2025-01-10")
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	if len(slots) != 2 || slots[0] != "08:30" || slots[1] != "13:00" {
		t.Fatalf("empty scope slots = %v, want [08:30 13:00]", slots)
	}

	mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	slots, err = e.GetAvailableSlots(1, "2025-01-10")
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	if len(slots) != 1 || slots[0] != "13:00" {
		t.Fatalf("slots = %v, want [13:00]", slots)
	}

	mustCreate(t, e, 2, 1, "2025-01-10", "13:00")
	slots, err = e.GetAvailableSlots(1, "2025-01-10")
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("slots = %v, want []", slots)
	}

	// Another scope is unaffected.
	slots, err = e.GetAvailableSlots(2, "2025-01-10")
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("other scope slots = %v, want both", slots)
	}
}

func TestGetAvailableSlotsIgnoresCancelled(t *testing.T) {
	e, _ := newTestEngine(t)

	b := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	if err := e.CancelBooking(b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	slots, err := e.GetAvailableSlots(1, "2025-01-10")
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("slots after cancel = %v, want both free", slots)
	}
}

func TestCheckUserBooking(t *testing.T) {
	e, _ := newTestEngine(t)

	got, err := e.CheckUserBooking(1, 1)
	if err != nil {
		t.Fatalf("check user booking: %v", err)
	}
	if got != nil {
		t.Fatalf("got = %+v, want nil", got)
	}

	later := mustCreate(t, e, 1, 1, "2025-01-11", "08:30")
	earlier := mustCreate(t, e, 1, 1, "2025-01-10", "13:00")
	_ = later

	got, err = e.CheckUserBooking(1, 1)
	if err != nil {
		t.Fatalf("check user booking: %v", err)
	}
	if got == nil || got.ID != earlier.ID {
		t.Fatalf("got = %+v, want earliest booking %d", got, earlier.ID)
	}

	// Cancelled bookings are invisible to check-in.
	if err := e.CancelBooking(earlier.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, err = e.CheckUserBooking(1, 1)
	if err != nil {
		t.Fatalf("check user booking: %v", err)
	}
	if got == nil || got.ID != later.ID {
		t.Fatalf("got = %+v, want booking %d", got, later.ID)
	}
}

func TestGetBookingByQueueNumberScoped(t *testing.T) {
	e, _ := newTestEngine(t)

	a := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	b := mustCreate(t, e, 2, 2, "2025-01-10", "08:30")
	if a.QueueNumber != 1 || b.QueueNumber != 1 {
		t.Fatalf("queue numbers = %d, %d, want both 1", a.QueueNumber, b.QueueNumber)
	}

	got, err := e.GetBookingByQueueNumber(2, "2025-01-10", 1)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil || got.ID != b.ID {
		t.Fatalf("got = %+v, want booking %d", got, b.ID)
	}

	got, err = e.GetBookingByQueueNumber(1, "2025-01-11", 1)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("got = %+v, want nil for wrong date", got)
	}
}

func TestGetBookingByReference(t *testing.T) {
	e, _ := newTestEngine(t)

	b := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")

	got, err := e.GetBookingByReference(b.Reference)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil || got.ID != b.ID {
		t.Fatalf("got = %+v, want booking %d", got, b.ID)
	}

	got, err = e.GetBookingByReference("no-such-reference")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("got = %+v, want nil", got)
	}
}

func TestResetDailyQueues(t *testing.T) {
	e, db := newTestEngine(t)

	old := mustCreate(t, e, 1, 1, "2000-01-01", "08:30")
	today := mustCreate(t, e, 1, 1, e.Today(), "08:30")
	future := mustCreate(t, e, 1, 1, "2999-01-01", "08:30")

	removed, err := e.ResetDailyQueues()
	if err != nil {
		t.Fatalf("reset daily: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	var count int64
	db.Model(&bookingModel.Booking{}).Where("id = ?", old.ID).Count(&count)
	if count != 0 {
		t.Fatal("old booking survived daily reset")
	}
	db.Model(&bookingModel.Booking{}).Where("id IN ?", []uint{today.ID, future.ID}).Count(&count)
	if count != 2 {
		t.Fatalf("surviving bookings = %d, want 2", count)
	}

	// Status events of removed bookings are gone too.
	db.Model(&bookingModel.BookingStatusEvent{}).Where("booking_id = ?", old.ID).Count(&count)
	if count != 0 {
		t.Fatal("status events survived daily reset")
	}
}

func TestResetAllQueues(t *testing.T) {
	e, db := newTestEngine(t)

	mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	mustCreate(t, e, 2, 2, "2025-01-11", "13:00")

	if err := e.ResetAllQueues(); err != nil {
		t.Fatalf("reset all: %v", err)
	}

	var count int64
	db.Model(&bookingModel.Booking{}).Count(&count)
	if count != 0 {
		t.Fatalf("bookings = %d, want 0", count)
	}
	db.Model(&bookingModel.BookingStatusEvent{}).Count(&count)
	if count != 0 {
		t.Fatalf("status events = %d, want 0", count)
	}

	// Numbering restarts at 1 after a full reset.
	b := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	if b.QueueNumber != 1 {
		t.Fatalf("queue number after reset = %d, want 1", b.QueueNumber)
	}
}

func TestStatusEventsRecorded(t *testing.T) {
	e, db := newTestEngine(t)

	b := mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	if _, err := e.SelectNextCaller(); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.CancelBooking(b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var events []bookingModel.BookingStatusEvent
	if err := db.Where("booking_id = ?", b.ID).Order("id ASC").Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	want := []bookingModel.BookingStatus{
		bookingModel.BookingStatusActive,
		bookingModel.BookingStatusCalled,
		bookingModel.BookingStatusCancel,
	}
	if len(events) != len(want) {
		t.Fatalf("events = %d, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Status != want[i] {
			t.Fatalf("event %d status = %q, want %q", i, ev.Status, want[i])
		}
	}
}

func TestGetBookingsByUserOrdered(t *testing.T) {
	e, _ := newTestEngine(t)

	mustCreate(t, e, 1, 1, "2025-01-11", "08:30")
	mustCreate(t, e, 1, 1, "2025-01-10", "13:00")
	mustCreate(t, e, 1, 1, "2025-01-10", "08:30")
	mustCreate(t, e, 2, 1, "2025-01-09", "08:30")

	bookings, err := e.GetBookingsByUser(1)
	if err != nil {
		t.Fatalf("get bookings by user: %v", err)
	}
	if len(bookings) != 3 {
		t.Fatalf("bookings = %d, want 3", len(bookings))
	}
	for i := 1; i < len(bookings); i++ {
		prev := bookings[i-1].BookingDate + " " + bookings[i-1].BookingTime
		cur := bookings[i].BookingDate + " " + bookings[i].BookingTime
		if prev > cur {
			t.Fatalf("bookings out of order: %q before %q", prev, cur)
		}
	}
}
