package domain

import (
	"strings"
	"time"
)

// DateRange is a named range token selectable on the board.
type DateRange string

const (
	RangeAll       DateRange = "all"
	RangeToday     DateRange = "today"
	RangeThisWeek  DateRange = "this_week"
	RangeThisMonth DateRange = "this_month"
	RangeLastMonth DateRange = "last_month"
)

// ParseDateRange coerces a raw token, defaulting to RangeAll.
func ParseDateRange(raw string) DateRange {
	r := DateRange(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RangeToday, RangeThisWeek, RangeThisMonth, RangeLastMonth:
		return r
	default:
		return RangeAll
	}
}

// ResolvedRange holds inclusive start/end instants in local time.
// Unbounded is true for RangeAll, where the predicate always passes.
type ResolvedRange struct {
	Start     time.Time
	End       time.Time
	Unbounded bool
}

// ResolveDateRange converts a named token into concrete boundaries computed
// in now's location. Weeks start on the most recent Sunday; months use
// calendar boundaries. End is the last representable instant of the range's
// final day.
func ResolveDateRange(r DateRange, now time.Time) ResolvedRange {
	loc := now.Location()

	switch r {
	case RangeToday:
		start := startOfDay(now, loc)
		return ResolvedRange{Start: start, End: endOfDay(start, loc)}

	case RangeThisWeek:
		start := startOfDay(now.AddDate(0, 0, -int(now.Weekday())), loc)
		return ResolvedRange{Start: start, End: endOfDay(now, loc)}

	case RangeThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return ResolvedRange{Start: start, End: endOfDay(now, loc)}

	case RangeLastMonth:
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		start := firstOfThis.AddDate(0, -1, 0)
		return ResolvedRange{Start: start, End: endOfDay(firstOfThis.AddDate(0, 0, -1), loc)}

	default:
		return ResolvedRange{Unbounded: true}
	}
}

// Contains reports whether t falls inside the range. Both sides are first
// normalized to local calendar-date strings so a timestamp stored in UTC
// cannot drift into the neighbouring day when the viewer is offset from UTC.
func (r ResolvedRange) Contains(t time.Time) bool {
	if r.Unbounded {
		return true
	}

	day := localDateString(t, r.Start.Location())
	return day >= localDateString(r.Start, r.Start.Location()) &&
		day <= localDateString(r.End, r.Start.Location())
}

func localDateString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}
