// Package tfutils
package tfutils

import (
	"time"
)

// IntervalDuration returns the duration for a given interval, or 0 if unsupported.
func IntervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	default:
		return 0
	}
}

// IntervalMinutes returns the interval length in whole minutes.
// Only minute-granularity intervals are supported by the scan gate.
func IntervalMinutes(interval string) int {
	d := IntervalDuration(interval)
	if d == 0 || d%time.Minute != 0 {
		return 0
	}
	return int(d / time.Minute)
}

// IsValidInterval checks if an interval string is supported.
func IsValidInterval(interval string) bool {
	return IntervalDuration(interval) != 0
}
