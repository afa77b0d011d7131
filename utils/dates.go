package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/jinzhu/now"
)

// DateLayout is the wire format of date-only fields.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// ParseDatePtr parses an optional date; nil stays nil.
func ParseDatePtr(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := ParseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DateOnly returns the calendar date of t in its own location as midnight
// UTC, the representation every date-only column uses.
func DateOnly(t time.Time) time.Time {
	d := now.With(t).BeginningOfDay()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date-only value.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DaysUntil is the calendar-day ceiling between today and target after both
// are truncated to midnight. Negative when target is in the past.
func DaysUntil(target, today time.Time) int {
	diff := DateOnly(target).Sub(DateOnly(today))
	return int(math.Ceil(diff.Hours() / 24))
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
