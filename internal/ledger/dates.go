package ledger

import (
	"errors"
	"strings"
	"time"
)

var errBadDate = errors.New("unrecognised date")

// parseDate accepts a calendar date or an RFC 3339 timestamp and returns the
// instant in loc.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errBadDate
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, errBadDate
}

// dateOnly truncates t to midnight in its own location.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// afterToday reports whether t falls on a later calendar day than now in loc.
func afterToday(t, now time.Time, loc *time.Location) bool {
	return dateOnly(t.In(loc)).After(dateOnly(now.In(loc)))
}
