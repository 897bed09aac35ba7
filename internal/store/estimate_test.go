package store

import (
	"testing"
	"time"
)

func TestFlatEstimator(t *testing.T) {
	now := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)

	at := FlatEstimator{}.EstimateCall(now, 10)
	if FormatCallTime(at) != "09:30" {
		t.Fatalf("expected default 30 minute lead, got %s", FormatCallTime(at))
	}

	at = FlatEstimator{Lead: 45 * time.Minute}.EstimateCall(now, 0)
	if FormatCallTime(at) != "09:45" {
		t.Fatalf("expected 09:45, got %s", FormatCallTime(at))
	}
}

func TestDepthEstimator(t *testing.T) {
	now := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)

	at := DepthEstimator{}.EstimateCall(now, 0)
	if FormatCallTime(at) != "09:03" {
		t.Fatalf("expected 09:03 for empty queue, got %s", FormatCallTime(at))
	}

	at = DepthEstimator{PerReservation: 5 * time.Minute}.EstimateCall(now, 3)
	if FormatCallTime(at) != "09:20" {
		t.Fatalf("expected 09:20 for depth 3, got %s", FormatCallTime(at))
	}

	at = DepthEstimator{}.EstimateCall(now, -4)
	if FormatCallTime(at) != "09:03" {
		t.Fatalf("negative depth should clamp to zero, got %s", FormatCallTime(at))
	}
}
