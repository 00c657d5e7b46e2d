// Package calendar enumerates business days (Monday through Friday).
//
// There is no holiday calendar and no timezone conversion: dates are taken in
// whatever location the caller's time.Time carries and normalised to midnight.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument is returned for caller errors such as a negative day count.
var ErrInvalidArgument = errors.New("invalid argument")

// Date truncates t to midnight in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsBusinessDay reports whether t falls on Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// NextBusinessDays returns count business days starting at start (inclusive),
// in increasing order.
func NextBusinessDays(start time.Time, count int) ([]time.Time, error) {
	if count < 0 {
		return nil, fmt.Errorf("business day count %d: %w", count, ErrInvalidArgument)
	}
	days := make([]time.Time, 0, count)
	for cur := Date(start); len(days) < count; cur = cur.AddDate(0, 0, 1) {
		if IsBusinessDay(cur) {
			days = append(days, cur)
		}
	}
	return days, nil
}
