// Package dates turns the loosely formatted date text found in the store into
// comparable calendar days.
//
// Stored values mix native timestamps ("2025-06-01 14:03:11"), ISO strings with
// a T separator or fractional seconds, bare days and the odd hand-typed value.
// Every result is a calendar day at midnight UTC; no timezone conversion is
// applied because the stored values are naive local timestamps.
package dates

import (
	"strings"
	"time"
)

// DayLayout is the canonical calendar-day format used on the wire.
const DayLayout = "2006-01-02"

// MonthLayout is the canonical year-month format used on the wire.
const MonthLayout = "2006-01"

// unixEpochOrdinal is the proleptic Gregorian ordinal of 1970-01-01 when
// 0001-01-01 is day 1.
const unixEpochOrdinal = 719163

var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	DayLayout,
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// Date is a calendar day or the invalid marker for a malformed source value.
type Date struct {
	Time  time.Time
	Valid bool
}

// Normalize parses raw into a calendar day. When no layout matches the full
// value it retries on the first ten characters, the expected YYYY-MM-DD prefix.
func Normalize(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if t, ok := parse(value); ok {
		return t, true
	}
	if len(value) > 10 {
		return parse(value[:10])
	}
	return time.Time{}, false
}

// Column normalizes every value, marking malformed entries invalid.
func Column(raw []string) []Date {
	out := make([]Date, len(raw))
	for i, value := range raw {
		t, ok := Normalize(value)
		out[i] = Date{Time: t, Valid: ok}
	}
	return out
}

func parse(value string) (time.Time, bool) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// Day truncates t to its calendar day, keeping the wall-clock date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day of now in its own location.
func Today(now time.Time) time.Time {
	return Day(now)
}

// ParseDay parses a strict YYYY-MM-DD value.
func ParseDay(value string) (time.Time, bool) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Month is a calendar year-month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM value.
func ParseMonth(value string) (Month, bool) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(value))
	if err != nil {
		return Month{}, false
	}
	return Month{Year: t.Year(), Month: t.Month()}, true
}

// MonthOf returns the month containing day.
func MonthOf(day time.Time) Month {
	return Month{Year: day.Year(), Month: day.Month()}
}

// Contains reports whether day falls inside m.
func (m Month) Contains(day time.Time) bool {
	return day.Year() == m.Year && day.Month() == m.Month
}

// String renders m as YYYY-MM.
func (m Month) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format(MonthLayout)
}

// Format renders a calendar day as YYYY-MM-DD.
func Format(day time.Time) string {
	return day.Format(DayLayout)
}

// Ordinal returns the proleptic Gregorian day number of day, with 0001-01-01 as 1.
func Ordinal(day time.Time) int64 {
	d := Day(day)
	return floorDiv(d.Unix(), 86400) + unixEpochOrdinal
}

// FromOrdinal is the inverse of Ordinal.
func FromOrdinal(ordinal int64) time.Time {
	return time.Unix((ordinal-unixEpochOrdinal)*86400, 0).UTC()
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
