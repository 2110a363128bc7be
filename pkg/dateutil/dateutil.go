package dateutil

import "time"

// AddMonths adds n calendar months to t, clamping to the last day of the
// target month when the source day does not exist there (for example
// January 31 plus one month gives February 28/29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	lastDay := daysIn(firstOfTarget.Month(), firstOfTarget.Year())
	if day > lastDay {
		day = lastDay
	}

	return firstOfTarget.AddDate(0, 0, day-1)
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
