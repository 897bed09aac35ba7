package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const queueNumberPad = 2

// FormatQueueNumber renders a ticket label like "PTK-01". The pad keeps two
// digits for small sequences and grows naturally past 99.
func FormatQueueNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, queueNumberPad, seq)
}

// ParseQueueSuffix extracts the numeric sequence from a ticket label issued
// for the given prefix. It fails on labels from other prefixes and on
// non-numeric or non-positive suffixes.
func ParseQueueSuffix(prefix, queueNumber string) (int64, error) {
	raw, ok := strings.CutPrefix(queueNumber, prefix+"-")
	if !ok {
		return 0, fmt.Errorf("queue number %q does not match prefix %q", queueNumber, prefix)
	}
	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("queue number %q has non-numeric suffix", queueNumber)
	}
	if seq <= 0 {
		return 0, fmt.Errorf("queue number %q has non-positive suffix", queueNumber)
	}
	return seq, nil
}

// FallbackQueueNumber derives a unique-by-time label for the rare case where
// the latest issued number cannot be parsed. It sacrifices monotonicity to
// keep uniqueness; callers must log when they reach for it.
func FallbackQueueNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d", prefix, now.UTC().Unix())
}
