package models

import "time"

// Reservation is the booking entity. JSON tags follow the portal's wire
// contract, which the public frontend already consumes.
type Reservation struct {
	ReservationID     string     `json:"id"`
	QueueNumber       string     `json:"queueNumber"`
	ServiceCode       string     `json:"service"`
	CitizenName       string     `json:"name"`
	Phone             string     `json:"phone"`
	NationalID        string     `json:"nik,omitempty"`
	Purpose           string     `json:"purpose"`
	Date              string     `json:"date"`
	TimeSlot          string     `json:"timeSlot"`
	Status            string     `json:"status"`
	EstimatedCallTime string     `json:"estimatedCallTime"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	CalledAt          *time.Time `json:"calledAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

const (
	StatusWaiting   = "waiting"
	StatusCalled    = "called"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// IsActive reports whether the reservation still holds its slot.
func IsActive(status string) bool {
	return status == StatusWaiting || status == StatusCalled
}

func IsKnownStatus(status string) bool {
	switch status {
	case StatusWaiting, StatusCalled, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}
