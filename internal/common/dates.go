// Package common holds calendar helpers shared by the fetch, store and API
// layers.
package common

import (
	"fmt"
	"time"
)

// ErrInvalidDate is returned for date strings that do not parse as a
// YYYY-MM-DD calendar day.
var ErrInvalidDate = fmt.Errorf("invalid date, expected YYYY-MM-DD")

const (
	dayLayout     = "2006-01-02"
	compactLayout = "20060102"
)

// ParseDay parses a YYYY-MM-DD day string. Anything else, including
// out-of-range components like 2024-13-40, fails with ErrInvalidDate.
func ParseDay(s string) (time.Time, error) {
	day, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return day, nil
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(day time.Time) string {
	return day.Format(dayLayout)
}

// CompactDay renders a day as the 8-digit YYYYMMDD form the provider's
// hourly-history endpoint expects.
func CompactDay(day time.Time) string {
	return day.Format(compactLayout)
}

// YearsAgo projects day onto the same calendar date years back. Feb 29 maps
// to Feb 28 when the target year is not a leap year, rather than rolling over
// into March.
func YearsAgo(day time.Time, years int) time.Time {
	year := day.Year() - years
	month := day.Month()
	dom := day.Day()

	if month == time.February && dom == 29 && !isLeapYear(year) {
		dom = 28
	}

	return time.Date(year, month, dom, 0, 0, 0, 0, day.Location())
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
