// Package expiry computes order countdowns from server supplied expiry timestamps.
package expiry

import "time"

// SecondsUntil returns seconds left until expireAt (seconds since epoch).
// It returns 0 when expireAt is unknown or already passed.
func SecondsUntil(expireAt int64) int64 {
	return SecondsUntilAt(expireAt, time.Now())
}

// SecondsUntilAt is SecondsUntil with explicit current time
func SecondsUntilAt(expireAt int64, now time.Time) int64 {
	if expireAt <= 0 {
		return 0
	}
	return max(expireAt-now.Unix(), 0)
}
