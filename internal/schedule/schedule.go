// Package schedule holds the desk's business-hours rules: which hour slots
// exist on which weekday, whether the desk is open at a given moment, and
// whether a slot's window has already elapsed.
package schedule

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	slotLayout = "15:04"
)

// SlotDuration is the width of a single bookable window.
const SlotDuration = time.Hour

type window struct {
	startHour int // inclusive
	endHour   int // exclusive
}

// Weekday windows for the reservation desk. Monday-Thursday has a midday
// gap, Friday closes at 10:00, weekends are closed.
func windowsFor(day time.Weekday) []window {
	switch day {
	case time.Saturday, time.Sunday:
		return nil
	case time.Friday:
		return []window{{8, 10}}
	default:
		return []window{{8, 12}, {14, 16}}
	}
}

type OpenStatus struct {
	Open       bool       `json:"open"`
	Reason     string     `json:"reason,omitempty"`
	NextOpenAt *time.Time `json:"nextOpenAt,omitempty"`
}

// IsOpen reports whether the desk is open at the given moment and, when it
// is not, when it opens next.
func IsOpen(now time.Time) OpenStatus {
	windows := windowsFor(now.Weekday())
	minute := now.Hour()*60 + now.Minute()
	for _, w := range windows {
		if minute >= w.startHour*60 && minute < w.endHour*60 {
			return OpenStatus{Open: true}
		}
	}

	reason := "desk is closed"
	if len(windows) == 0 {
		reason = "desk is closed on weekends"
	}
	next := nextOpening(now)
	return OpenStatus{Open: false, Reason: reason, NextOpenAt: &next}
}

func nextOpening(now time.Time) time.Time {
	minute := now.Hour()*60 + now.Minute()
	for _, w := range windowsFor(now.Weekday()) {
		if minute < w.startHour*60 {
			return time.Date(now.Year(), now.Month(), now.Day(), w.startHour, 0, 0, 0, now.Location())
		}
	}
	day := now.AddDate(0, 0, 1)
	for i := 0; i < 7; i++ {
		windows := windowsFor(day.Weekday())
		if len(windows) > 0 {
			return time.Date(day.Year(), day.Month(), day.Day(), windows[0].startHour, 0, 0, 0, day.Location())
		}
		day = day.AddDate(0, 0, 1)
	}
	return now
}

// IsValidSlot reports whether the slot label names a bookable window on the
// weekday of the given date. Malformed dates or slots are simply invalid.
func IsValidSlot(date, slot string) bool {
	day, err := ParseDate(date)
	if err != nil {
		return false
	}
	start, err := ParseSlot(slot)
	if err != nil || start.Minute() != 0 {
		return false
	}
	for _, w := range windowsFor(day.Weekday()) {
		if start.Hour() >= w.startHour && start.Hour() < w.endHour {
			return true
		}
	}
	return false
}

// IsSlotPassed reports whether the slot's window has fully elapsed. Only
// today's slots can be passed; any other date is never passed. The window
// ends one hour after its start, so slot "09:00" is passed from 10:00.
func IsSlotPassed(date, slot string, now time.Time) bool {
	day, err := ParseDate(date)
	if err != nil {
		return false
	}
	if !sameDay(day, now) {
		return false
	}
	start, err := ParseSlot(slot)
	if err != nil {
		return false
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), start.Hour(), start.Minute(), 0, 0, now.Location()).Add(SlotDuration)
	return !now.Before(end)
}

// SlotsForDate lists the valid hour labels for the weekday of date, in
// chronological order. Weekends yield an empty list.
func SlotsForDate(date string) []string {
	day, err := ParseDate(date)
	if err != nil {
		return nil
	}
	var slots []string
	for _, w := range windowsFor(day.Weekday()) {
		for hour := w.startHour; hour < w.endHour; hour++ {
			slots = append(slots, fmt.Sprintf("%02d:00", hour))
		}
	}
	return slots
}

// IsPastDate reports whether date falls strictly before now's calendar day.
func IsPastDate(date string, now time.Time) bool {
	day, err := ParseDate(date)
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.Before(today)
}

func ParseDate(date string) (time.Time, error) {
	return time.Parse(dateLayout, date)
}

func ParseSlot(slot string) (time.Time, error) {
	return time.Parse(slotLayout, slot)
}

func sameDay(day, now time.Time) bool {
	return day.Year() == now.Year() && day.Month() == now.Month() && day.Day() == now.Day()
}
