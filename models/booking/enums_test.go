package booking

import (
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		allowed  bool
	}{
		{BookingStatusActive, BookingStatusCalled, true},
		{BookingStatusActive, BookingStatusExpired, true},
		{BookingStatusActive, BookingStatusCancel, true},
		{BookingStatusCalled, BookingStatusCancel, true},

		{BookingStatusCalled, BookingStatusActive, false},
		{BookingStatusCalled, BookingStatusExpired, false},
		{BookingStatusExpired, BookingStatusActive, false},
		{BookingStatusExpired, BookingStatusCalled, false},
		{BookingStatusExpired, BookingStatusCancel, false},
		{BookingStatusCancel, BookingStatusActive, false},
		{BookingStatusCancel, BookingStatusCalled, false},
		{BookingStatusCancel, BookingStatusExpired, false},
		{BookingStatusActive, BookingStatusActive, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	if BookingStatusActive.IsTerminal() {
		t.Error("active must not be terminal")
	}
	if BookingStatusCalled.IsTerminal() {
		t.Error("called must not be terminal")
	}
	if !BookingStatusExpired.IsTerminal() {
		t.Error("expired must be terminal")
	}
	if !BookingStatusCancel.IsTerminal() {
		t.Error("cancel must be terminal")
	}
}

func TestBookingTypeValidation(t *testing.T) {
	for _, bt := range GetAllBookingTypes() {
		if !bt.IsValid() {
			t.Errorf("%q must be valid", bt)
		}
	}
	for _, bt := range []BookingType{"", "walk-in", "passport"} {
		if bt.IsValid() {
			t.Errorf("%q must be invalid", bt)
		}
	}
}

func TestStatusValidation(t *testing.T) {
	for _, bs := range GetAllBookingStatuses() {
		if !bs.IsValid() {
			t.Errorf("%q must be valid", bs)
		}
	}
	if BookingStatus("pending").IsValid() {
		t.Error("unknown status must be invalid")
	}
}
