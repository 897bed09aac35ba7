package store

import (
	"testing"
	"time"
)

func TestFormatQueueNumber(t *testing.T) {
	cases := []struct {
		prefix string
		seq    int64
		want   string
	}{
		{"PTK", 1, "PTK-01"},
		{"PTK", 9, "PTK-09"},
		{"SD", 42, "SD-42"},
		{"SMP", 100, "SMP-100"},
	}
	for _, tt := range cases {
		if got := FormatQueueNumber(tt.prefix, tt.seq); got != tt.want {
			t.Fatalf("FormatQueueNumber(%q, %d)=%q, want %q", tt.prefix, tt.seq, got, tt.want)
		}
	}
}

func TestParseQueueSuffix(t *testing.T) {
	seq, err := ParseQueueSuffix("PTK", "PTK-07")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if seq != 7 {
		t.Fatalf("expected 7, got %d", seq)
	}

	if _, err := ParseQueueSuffix("PTK", "SD-07"); err == nil {
		t.Fatalf("expected error for foreign prefix")
	}
	if _, err := ParseQueueSuffix("PTK", "PTK-xx"); err == nil {
		t.Fatalf("expected error for non-numeric suffix")
	}
	if _, err := ParseQueueSuffix("PTK", "PTK-0"); err == nil {
		t.Fatalf("expected error for non-positive suffix")
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, seq := range []int64{1, 2, 99, 100, 12345} {
		label := FormatQueueNumber("PAUD", seq)
		parsed, err := ParseQueueSuffix("PAUD", label)
		if err != nil {
			t.Fatalf("parse %q: %v", label, err)
		}
		if parsed != seq {
			t.Fatalf("round trip %d -> %q -> %d", seq, label, parsed)
		}
	}
}

func TestFallbackQueueNumber(t *testing.T) {
	now := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	if got := FallbackQueueNumber("PTK", now); got != "PTK-1768208400" {
		t.Fatalf("unexpected fallback label %q", got)
	}
}
