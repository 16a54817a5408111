package utils

import (
	"time"

	"golang-backtest-analytics/pkg/common"
)

// DaysBetween returns the calendar-day distance between two instants.
func DaysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// MonthKey buckets a timestamp into its (year, month) period key.
func MonthKey(t time.Time) string {
	return t.Format(common.MONTH_KEY_FORMAT)
}
