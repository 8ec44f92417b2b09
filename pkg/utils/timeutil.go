package utils

import (
	"time"
)

// ET is the US Eastern time location used by EDGAR and the earnings calendar.
var ET *time.Location

func init() {
	var err error
	ET, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: fixed EST offset if the tz database is not available
		ET = time.FixedZone("EST", -5*60*60)
	}
}

// NowET returns the current time in US Eastern time.
func NowET() time.Time {
	return time.Now().In(ET)
}

// TodayET returns today's date in US Eastern time as "2006-01-02".
func TodayET() string {
	return NowET().Format("2006-01-02")
}

// QuarterOf maps a reporting period month to its 10-Q quarter label.
// October to December returns nil: there is no 10-Q for the fourth
// quarter, the 10-K covers it.
func QuarterOf(t time.Time) *string {
	var q string
	switch t.Month() {
	case time.January, time.February, time.March:
		q = "Q1"
	case time.April, time.May, time.June:
		q = "Q2"
	case time.July, time.August, time.September:
		q = "Q3"
	default:
		return nil
	}
	return &q
}

// ValidCalendarDate reports whether year, month and day form a real date.
func ValidCalendarDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}
