// Package workweek computes the week and month windows used for log
// grouping and provides the canonical date-string format.
//
// Every piece of log filtering in the repository compares dates through
// FormatDate's YYYY-MM-DD form; lexicographic order on those strings is
// chronological order, so windows can be expressed as string ranges.
package workweek

import "time"

// DateFormat is the canonical YYYY-MM-DD layout used as the grouping key
// for productivity logs.
const DateFormat = "2006-01-02"

// WeekdayCount is the number of days exposed by the weekly entry grid.
const WeekdayCount = 5

// StartOfWeek returns the Monday at local midnight for the week containing t.
// Sunday belongs to the prior week and maps back to the previous Monday.
func StartOfWeek(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}

// Days returns the five weekday dates (Monday through Friday) starting at
// start. Callers pass the result of StartOfWeek; the input is normalized to
// local midnight either way.
func Days(start time.Time) []time.Time {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	days := make([]time.Time, 0, WeekdayCount)
	for i := 0; i < WeekdayCount; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

// FormatDate renders t as YYYY-MM-DD using local calendar fields, so the
// same wall-clock date always produces the same key regardless of zone.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// ParseDate parses a canonical YYYY-MM-DD string in the local location.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, value, time.Local)
}

// WeekWindow returns the inclusive Monday through Sunday date-string bounds for the
// week containing t. Totals count weekends even though the entry grid only
// exposes weekdays.
func WeekWindow(t time.Time) (from, to string) {
	start := StartOfWeek(t)
	return FormatDate(start), FormatDate(start.AddDate(0, 0, 6))
}

// EntryWindow returns the inclusive Monday through Friday date-string bounds for the
// displayed entry grid of the week containing t.
func EntryWindow(t time.Time) (from, to string) {
	start := StartOfWeek(t)
	return FormatDate(start), FormatDate(start.AddDate(0, 0, WeekdayCount-1))
}

// MonthWindow returns the inclusive first/last date-string bounds of the
// calendar month containing t.
func MonthWindow(t time.Time) (from, to string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return FormatDate(first), FormatDate(last)
}

// InWindow reports whether the canonical date string falls within the
// inclusive [from, to] bounds. String comparison is safe because the
// canonical format sorts chronologically.
func InWindow(date, from, to string) bool {
	return date >= from && date <= to
}
