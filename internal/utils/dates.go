// Package utils provides small shared helpers for dates and timing.
package utils

import "time"

// Layout is the canonical date format used across the API and stores
const Layout = "2006-01-02"

// DaysInYear is the day-count denominator for act/365.25 year fractions
const DaysInYear = 365.25

// Midnight truncates a timestamp to its UTC calendar date
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from one date to another.
// Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	return int(Midnight(to).Sub(Midnight(from)).Hours() / 24)
}

// YearFraction returns the act/365.25 year fraction between two dates
func YearFraction(from, to time.Time) float64 {
	return float64(DaysBetween(from, to)) / DaysInYear
}

// OnOrBefore reports whether a falls on or before b, by calendar date
func OnOrBefore(a, b time.Time) bool {
	return !Midnight(a).After(Midnight(b))
}
