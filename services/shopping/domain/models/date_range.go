package models

import (
	"fmt"
	"time"
)

// DateRange is an inclusive range of calendar dates. Both ends are normalized
// to midnight UTC so comparisons ignore time of day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange returns a DateRange or an error if start falls after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: truncateDate(start), End: truncateDate(end)}
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	return r, nil
}

// ParseDateRange parses two ISO-8601 calendar dates (YYYY-MM-DD).
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("start date %q: %w", start, err)
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("end date %q: %w", end, err)
	}
	return NewDateRange(s, e)
}

// Contains reports whether d falls within the range, inclusive on both ends.
func (r DateRange) Contains(d time.Time) bool {
	day := truncateDate(d)
	return !day.Before(r.Start) && !day.After(r.End)
}

// String renders the range as "YYYY-MM-DD..YYYY-MM-DD".
func (r DateRange) String() string {
	return r.Start.Format(time.DateOnly) + ".." + r.End.Format(time.DateOnly)
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
