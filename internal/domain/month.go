package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// monthKeyRe accepts YYYY-MM with a month of 01 through 12.
var monthKeyRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// MonthKey identifies one monthly-average measurement period.
type MonthKey struct {
	Year  int
	Month time.Month
}

// NewMonthKey builds a MonthKey, normalizing out-of-range months
// (e.g. month 13 of 2020 becomes 2021-01).
func NewMonthKey(year int, month time.Month) MonthKey {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses a strict YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	if !monthKeyRe.MatchString(s) {
		return MonthKey{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[5:])
	return MonthKey{Year: year, Month: time.Month(month)}, nil
}

// String formats the key as YYYY-MM.
func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Timestamp is the mid-month instant (15th, 12:00 UTC) the monthly-average
// product is indexed by.
func (m MonthKey) Timestamp() time.Time {
	return time.Date(m.Year, m.Month, 15, 12, 0, 0, 0, time.UTC)
}

// Before reports whether m is chronologically earlier than other.
func (m MonthKey) Before(other MonthKey) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Next returns the following month.
func (m MonthKey) Next() MonthKey {
	return NewMonthKey(m.Year, m.Month+1)
}

// IsZero reports whether the key is unset.
func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// MonthRange returns every month from start through end inclusive, in
// chronological order. It returns nil when start is after end.
func MonthRange(start, end MonthKey) []MonthKey {
	if end.Before(start) {
		return nil
	}
	var out []MonthKey
	for m := start; !end.Before(m); m = m.Next() {
		out = append(out, m)
	}
	return out
}
