package domain

import "time"

// DateOnly truncates a timestamp to day granularity in UTC. All schedule and
// projection math operates on day-granular dates.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonths advances a date by a number of calendar months, anchored at
// anchorDay. When the anchor day does not exist in the target month the date
// is clamped to that month's last day (a 31st-of-month schedule lands on the
// 30th in a 30-day month), instead of the overflow normalization time.AddDate
// would apply.
func AddMonths(t time.Time, months int, anchorDay int) time.Time {
	totalMonth := int(t.Month()) - 1 + months
	year := t.Year() + totalMonth/12
	month := time.Month(totalMonth%12 + 1)
	day := anchorDay
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
