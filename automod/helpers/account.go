package helpers

import (
	"time"
)

// no accounts exist before this time (the platform's snowflake epoch)
var platformAccountEpoch = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// returns true if account creation timestamp is plausible: not zero, and not before the platform existed. Timestamps in the future are allowed through; they come out as a negative age, which reads as "too new".
func PlausibleAccountCreation(when time.Time) bool {
	if when.IsZero() {
		return false
	}
	// this is mostly to check for misconfigurations or null values (eg, UNIX epoch zero means "unknown" not actually 1970)
	return !when.Before(platformAccountEpoch)
}

// Number of calendar months between account creation and 'now', counting only year and month. Day-of-month is ignored: an account created on Jan 31st is one month old on Feb 1st, and still one month old on Feb 28th.
//
// Both times are compared in UTC.
func AccountAgeMonths(createdAt, now time.Time) int {
	c := createdAt.UTC()
	n := now.UTC()
	return (n.Year()-c.Year())*12 + (int(n.Month()) - int(c.Month()))
}
