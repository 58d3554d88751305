// Package timeparse reads the date and time forms accepted from users.
package timeparse

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	dateLayout,
}

// Parse accepts RFC 3339, a local date-time without offset (with or without
// seconds), or a bare date. Values without an offset are read in loc; RFC
// 3339 values are converted to loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	var err error
	for _, layout := range localLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// RangeEnd is Parse, except that a bare date covers the whole day.
func RangeEnd(s string, loc *time.Location) (time.Time, error) {
	t, err := Parse(s, loc)
	if err != nil {
		return t, err
	}
	if len(strings.TrimSpace(s)) == len(dateLayout) {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}
