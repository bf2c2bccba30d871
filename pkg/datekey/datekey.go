// Package datekey provides calendar-day key functions for Daily Quiz Hub.
// A date key is a "YYYY-MM-DD" string derived from local wall-clock calendar
// fields, so a completion is attributed to the player's day at the moment of
// the triggering action rather than to a UTC day boundary.
// No external dependencies - uses only standard library.
package datekey

import "time"

// Layout is the canonical date key layout (YYYY-MM-DD, zero-padded).
const Layout = "2006-01-02"

// FromTime returns the date key for the calendar day of t, using the
// wall-clock fields of t's location.
func FromTime(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the date key for the current local calendar day.
func Today() string {
	return FromTime(time.Now())
}

// Previous returns the date key exactly one calendar day before key,
// handling month and year rollover. Malformed input is returned unchanged:
// this is an internal helper operating on trusted, already-validated keys,
// and a bad key must never make streak math fail.
func Previous(key string) string {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, -1).Format(Layout)
}

// IsValid reports whether key is a well-formed date key. The round-trip
// check rejects keys that parse but are not in canonical zero-padded form.
func IsValid(key string) bool {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return false
	}
	return t.Format(Layout) == key
}
