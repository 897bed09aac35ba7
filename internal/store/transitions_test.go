package store

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from  string
		to    string
		valid bool
	}{
		{"waiting", "called", true},
		{"waiting", "cancelled", true},
		{"waiting", "completed", false},
		{"called", "completed", true},
		{"called", "cancelled", true},
		{"called", "waiting", false},
		{"completed", "waiting", false},
		{"completed", "called", false},
		{"completed", "cancelled", false},
		{"cancelled", "waiting", false},
		{"cancelled", "completed", false},
		{"waiting", "waiting", true},
		{"completed", "completed", true},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}
