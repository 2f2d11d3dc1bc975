// report/period.go
package report

import (
	"fmt"
	"time"
)

var periodLayouts = []string{"Jan-2006", "January-2006"}

// ParsePeriod accepts an abbreviated or full month name plus a 4-digit
// year ("Jan-2023", "January-2023") and normalizes it to the first day
// of that month.
func ParsePeriod(value string) (time.Time, error) {
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("period must be in the format 'Jan-YYYY' or 'January-YYYY'")
}

// endOfMonth returns the last calendar day of the period's month.
func endOfMonth(period time.Time) time.Time {
	firstOfNext := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, period.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
