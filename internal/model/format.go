package model

import "time"

// Wire layouts: calendar dates and second-precision timestamps.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
// Out-of-range parts (month 13, day 32) are rejected.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders an optional date; nil stays nil so JSON emits null.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(DateLayout)
	return &s
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatOptionalTimestamp is FormatTimestamp for nullable columns.
func FormatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTimestamp(*t)
	return &s
}
