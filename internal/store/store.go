package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Fery-Iris/web-simdik-sub001/internal/models"
)

type CreateReservationInput struct {
	ServiceCode string
	CitizenName string
	Phone       string
	NationalID  string
	Purpose     string
	Date        string
	TimeSlot    string
	CreatedAt   time.Time
}

// Validate rejects inputs that would produce an unusable reservation row.
func (in CreateReservationInput) Validate() error {
	switch {
	case in.ServiceCode == "":
		return MissingField("service")
	case in.CitizenName == "":
		return MissingField("name")
	case in.Phone == "":
		return MissingField("phone")
	case in.Purpose == "":
		return MissingField("purpose")
	case in.Date == "":
		return MissingField("date")
	case in.TimeSlot == "":
		return MissingField("timeSlot")
	}
	return nil
}

// UpdateReservationInput is the full-field admin edit. Business-hours and
// capacity checks are deliberately not re-run so staff can correct records
// after hours; only the status transition graph is enforced.
type UpdateReservationInput struct {
	ServiceCode string
	CitizenName string
	Phone       string
	NationalID  string
	Purpose     string
	Date        string
	TimeSlot    string
	Status      string
	UpdatedAt   time.Time
}

type ListFilter struct {
	ServiceCode string
	Date        string
	Status      string
}

type SlotAvailability struct {
	TimeSlot string `json:"timeSlot"`
	Booked   int    `json:"booked"`
	Capacity int    `json:"capacity"`
}

type ServiceQueueStatus struct {
	ServiceCode      string `json:"service"`
	ServiceName      string `json:"serviceName"`
	CurrentNumber    string `json:"currentNumber"`
	ActiveCount      int    `json:"activeCount"`
	EstimatedWaitMin int    `json:"estimatedWaitMinutes"`
}

type OutboxEvent struct {
	EventID     string          `json:"eventId"`
	Type        string          `json:"type"`
	ServiceCode string          `json:"service"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OutboxCursor is the poller's position in outbox_events. The event id
// breaks ties between events sharing a created_at tick, so paging never
// skips or repeats an event.
type OutboxCursor struct {
	LastEventTime time.Time
	LastEventID   string
}

type ReservationStore interface {
	CreateReservation(ctx context.Context, input CreateReservationInput) (models.Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (models.Reservation, error)
	UpdateReservation(ctx context.Context, reservationID string, input UpdateReservationInput) (models.Reservation, error)
	DeleteReservation(ctx context.Context, reservationID string) error
	ListReservations(ctx context.Context, filter ListFilter) ([]models.Reservation, error)
	SlotAvailability(ctx context.Context, date string) ([]SlotAvailability, error)
	QueueStatus(ctx context.Context) ([]ServiceQueueStatus, error)
	CurrentlyCalled(ctx context.Context, serviceCode string) ([]models.Reservation, error)
	RecentlyCompleted(ctx context.Context, limit int) ([]models.Reservation, error)
	ListOutboxEvents(ctx context.Context, cursor OutboxCursor, limit int) ([]OutboxEvent, error)
	CancelStaleReservations(ctx context.Context, now time.Time, batchSize int) (int, error)
}
