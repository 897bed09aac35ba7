package schedule

import (
	"testing"
	"time"
)

// 2026-01-12 is a Monday.
const (
	monday   = "2026-01-12"
	thursday = "2026-01-15"
	friday   = "2026-01-16"
	saturday = "2026-01-17"
	sunday   = "2026-01-18"
)

func TestIsValidSlot(t *testing.T) {
	cases := []struct {
		date  string
		slot  string
		valid bool
	}{
		{monday, "08:00", true},
		{monday, "11:00", true},
		{monday, "12:00", false},
		{monday, "13:00", false},
		{monday, "14:00", true},
		{monday, "15:00", true},
		{monday, "16:00", false},
		{monday, "07:00", false},
		{thursday, "09:00", true},
		{friday, "08:00", true},
		{friday, "09:00", true},
		{friday, "10:00", false},
		{friday, "14:00", false},
		{saturday, "09:00", false},
		{sunday, "09:00", false},
		{monday, "08:30", false},
		{monday, "9am", false},
		{"not-a-date", "09:00", false},
	}

	for _, tt := range cases {
		if got := IsValidSlot(tt.date, tt.slot); got != tt.valid {
			t.Fatalf("IsValidSlot(%q, %q)=%v, want %v", tt.date, tt.slot, got, tt.valid)
		}
	}
}

func TestIsSlotPassed(t *testing.T) {
	at := func(hour, minute int) time.Time {
		return time.Date(2026, 1, 12, hour, minute, 0, 0, time.UTC)
	}

	if !IsSlotPassed(monday, "09:00", at(10, 0)) {
		t.Fatalf("slot 09:00 should be passed at 10:00")
	}
	if IsSlotPassed(monday, "09:00", at(9, 59)) {
		t.Fatalf("slot 09:00 should not be passed at 09:59")
	}
	if IsSlotPassed(thursday, "09:00", at(23, 0)) {
		t.Fatalf("a future date is never passed")
	}
	if IsSlotPassed("2026-01-11", "09:00", at(0, 0)) {
		t.Fatalf("a different calendar day is never passed")
	}
}

func TestIsOpen(t *testing.T) {
	at := func(date string, hour int) time.Time {
		day, err := ParseDate(date)
		if err != nil {
			t.Fatalf("parse date: %v", err)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	}

	if status := IsOpen(at(monday, 9)); !status.Open {
		t.Fatalf("expected open Monday 09:00, got %+v", status)
	}
	if status := IsOpen(at(monday, 13)); status.Open {
		t.Fatalf("expected midday gap closed, got %+v", status)
	} else if status.NextOpenAt == nil || status.NextOpenAt.Hour() != 14 {
		t.Fatalf("expected next opening 14:00, got %+v", status.NextOpenAt)
	}
	if status := IsOpen(at(friday, 11)); status.Open {
		t.Fatalf("expected Friday closed after 10:00, got %+v", status)
	}
	if status := IsOpen(at(saturday, 9)); status.Open {
		t.Fatalf("expected Saturday closed, got %+v", status)
	} else if status.NextOpenAt == nil || status.NextOpenAt.Weekday() != time.Monday {
		t.Fatalf("expected next opening on Monday, got %+v", status.NextOpenAt)
	}
}

func TestSlotsForDate(t *testing.T) {
	mondaySlots := SlotsForDate(monday)
	want := []string{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00"}
	if len(mondaySlots) != len(want) {
		t.Fatalf("expected %d slots, got %v", len(want), mondaySlots)
	}
	for i, slot := range want {
		if mondaySlots[i] != slot {
			t.Fatalf("slot %d: expected %s, got %s", i, slot, mondaySlots[i])
		}
	}

	fridaySlots := SlotsForDate(friday)
	if len(fridaySlots) != 2 || fridaySlots[0] != "08:00" || fridaySlots[1] != "09:00" {
		t.Fatalf("unexpected Friday slots: %v", fridaySlots)
	}

	if slots := SlotsForDate(sunday); len(slots) != 0 {
		t.Fatalf("expected no Sunday slots, got %v", slots)
	}
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)
	if !IsPastDate("2026-01-11", now) {
		t.Fatalf("yesterday should be past")
	}
	if IsPastDate("2026-01-12", now) {
		t.Fatalf("today is not past")
	}
	if IsPastDate("2026-01-13", now) {
		t.Fatalf("tomorrow is not past")
	}
}
