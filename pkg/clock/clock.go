// Package clock supplies business time for upload timestamps and date-range
// filtering. The business operates in GMT+05:00; timestamps are stored as UTC
// instants and only day boundaries are interpreted in the business zone.
package clock

import (
	"fmt"
	"time"
)

// BusinessZone is the fixed business timezone (GMT+05:00).
var BusinessZone = time.FixedZone("GMT+5", 5*60*60)

// Clock supplies the current moment for upload timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock backed by the system time.
func NewSystemClock() Clock {
	return systemClock{}
}

// Now returns the current UTC instant. Viewed in BusinessZone this is the
// current business time; PostgreSQL stores timestamps in UTC, so no shift
// is applied here.
func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// DayStart interprets a YYYY-MM-DD date string as the start of that day in
// the business timezone and returns the corresponding UTC instant.
func DayStart(dateStr string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", dateStr, BusinessZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t.UTC(), nil
}

// DayEnd interprets a YYYY-MM-DD date string as the end of that day
// (23:59:59.999) in the business timezone and returns the UTC instant.
func DayEnd(dateStr string) (time.Time, error) {
	start, err := DayStart(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(24*time.Hour - time.Millisecond), nil
}

// BusinessDate formats a UTC instant as the YYYY-MM-DD date it falls on in
// the business timezone. Used for grouping analytics by day.
func BusinessDate(t time.Time) string {
	return t.In(BusinessZone).Format("2006-01-02")
}
