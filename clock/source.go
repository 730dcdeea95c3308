// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package clock

import "time"

// Clock supplies the current instant and the zone calendar days are cut in.
// The zero value uses time.Now and the process local zone.
type Clock struct {
	Loc     *time.Location
	NowFunc func() time.Time
}

// System returns a Clock backed by the wall clock in loc.
func System(loc *time.Location) Clock {
	return Clock{Loc: loc, NowFunc: time.Now}
}

// Fixed returns a Clock frozen at t. Used by tests.
func Fixed(t time.Time) Clock {
	return Clock{Loc: t.Location(), NowFunc: func() time.Time { return t }}
}

// Now returns the current instant in the clock's zone.
func (c Clock) Now() time.Time {
	now := time.Now
	if c.NowFunc != nil {
		now = c.NowFunc
	}
	return now().In(c.Location())
}

// Location returns the configured zone, defaulting to time.Local.
func (c Clock) Location() *time.Location {
	return locOrLocal(c.Loc)
}

// Today returns the current calendar day.
func (c Clock) Today() string {
	return Day(c.Now(), c.Loc)
}
