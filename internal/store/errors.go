package store

import (
	"errors"
	"fmt"
)

var (
	ErrServiceNotFound     = errors.New("service not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrPastDate            = errors.New("date is in the past")
	ErrInvalidSlot         = errors.New("slot is not valid for that day")
	ErrSlotPassed          = errors.New("slot has already passed")
	ErrSlotFull            = errors.New("slot is at capacity")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// ValidationError marks a field-level rejection detected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

func MissingField(field string) error {
	return &ValidationError{Field: field, Reason: "required"}
}
