package store

import "time"

// WaitEstimator predicts when a new reservation will be called, given the
// number of active reservations ahead of it at booking time.
type WaitEstimator interface {
	EstimateCall(now time.Time, queueDepth int) time.Time
}

// FlatEstimator ignores queue depth and adds a fixed lead. This mirrors the
// front-desk policy of quoting "about half an hour" regardless of load.
type FlatEstimator struct {
	Lead time.Duration
}

func (e FlatEstimator) EstimateCall(now time.Time, queueDepth int) time.Time {
	lead := e.Lead
	if lead <= 0 {
		lead = 30 * time.Minute
	}
	return now.Add(lead)
}

// DepthEstimator scales with the active queue ahead of the reservation.
type DepthEstimator struct {
	PerReservation time.Duration
}

func (e DepthEstimator) EstimateCall(now time.Time, queueDepth int) time.Time {
	per := e.PerReservation
	if per <= 0 {
		per = 3 * time.Minute
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	return now.Add(time.Duration(queueDepth+1) * per)
}

// FormatCallTime renders the estimate the way the public display shows it.
func FormatCallTime(at time.Time) string {
	return at.Format("15:04")
}
