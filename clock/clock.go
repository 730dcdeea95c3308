// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// DayLayout is the calendar-day key used for votes, plans and filters.
const DayLayout = "2006-01-02"

var ErrInvalidTimeOfDay = errors.New("time of day must be HH:MM (24h)")

// Window is a same-day voting window in minutes since midnight.
// Start > End is a degenerate window that never opens.
type Window struct {
	Start int
	End   int
}

// Remaining is the time left until the window closes.
type Remaining struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Status is a point-in-time view of a window.
type Status struct {
	Open      bool      `json:"open"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Remaining Remaining `json:"remaining"`
	ClosesIn  string    `json:"closes_in,omitempty"`
}

// ParseTimeOfDay converts "HH:MM" into minutes since midnight.
func ParseTimeOfDay(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTimeOfDay)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTimeOfDay)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTimeOfDay)
	}
	return hours*60 + minutes, nil
}

// FormatTimeOfDay is the inverse of ParseTimeOfDay.
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseWindow builds a Window from two "HH:MM" strings.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Window{}, fmt.Errorf("start: %w", err)
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Window{}, fmt.Errorf("end: %w", err)
	}
	return Window{Start: s, End: e}, nil
}

func minutesOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// IsOpen reports whether now falls inside [Start, End], both ends inclusive
// at minute resolution.
func IsOpen(now time.Time, w Window) bool {
	if w.Start > w.End {
		return false
	}
	m := minutesOf(now)
	return w.Start <= m && m <= w.End
}

// TimeRemaining returns the time until End:00 on now's date, zero once that
// instant has passed.
func TimeRemaining(now time.Time, w Window) Remaining {
	end := closingInstant(now, w)
	if !now.Before(end) {
		return Remaining{}
	}
	diff := end.Sub(now)
	return Remaining{
		Hours:   int(diff / time.Hour),
		Minutes: int((diff % time.Hour) / time.Minute),
		Seconds: int((diff % time.Minute) / time.Second),
	}
}

func closingInstant(now time.Time, w Window) time.Time {
	y, mo, d := now.Date()
	return time.Date(y, mo, d, w.End/60, w.End%60, 0, 0, now.Location())
}

// CurrentStatus bundles IsOpen, TimeRemaining and a human readable countdown.
func CurrentStatus(now time.Time, w Window) Status {
	st := Status{
		Open:      IsOpen(now, w),
		Start:     FormatTimeOfDay(w.Start),
		End:       FormatTimeOfDay(w.End),
		Remaining: TimeRemaining(now, w),
	}
	if st.Open {
		st.ClosesIn = humanize.RelTime(closingInstant(now, w), now, "ago", "from now")
	}
	return st
}

// Day returns the calendar day of t in loc.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD calendar day at midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DayLayout, s, loc)
}

// AddDays shifts a calendar day key by n days.
func AddDays(day string, n int) (string, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DayLayout), nil
}

// ClosedFor reports whether voting for day has finished as seen at now: any
// earlier day, or today while the window is not open. Future days are never
// closed.
func ClosedFor(day string, now time.Time, w Window, loc *time.Location) bool {
	today := Day(now, loc)
	switch {
	case day < today:
		return true
	case day > today:
		return false
	}
	return !IsOpen(now.In(locOrLocal(loc)), w)
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
