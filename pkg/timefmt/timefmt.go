// Package timefmt renders stored timestamps in the single wire format used by
// every response body.
package timefmt

import "time"

// Layout is RFC 3339 with millisecond precision.
const Layout = "2006-01-02T15:04:05.000Z07:00"

// DateLayout is used for calendar dates without a time component.
const DateLayout = "2006-01-02"

// Format renders t in UTC.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// FormatPtr renders t, returning nil for a nil timestamp.
func FormatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Format(*t)
	return &s
}

// FormatDatePtr renders a calendar date, returning nil for a nil date.
func FormatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// ParseDate accepts either a calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
