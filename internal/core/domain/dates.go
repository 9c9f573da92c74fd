package domain

import (
	"errors"
	"time"
)

var ErrInvalidDate = errors.New("invalid date (must be YYYY-MM-DD)")

const DateLayout = "2006-01-02"

// DateKey is the history key for the calendar day of t in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// NormalizeDateKey accepts the canonical form, unpadded month/day and RFC3339
// timestamps, and returns the canonical YYYY-MM-DD spelling.
func NormalizeDateKey(key string) (string, error) {
	for _, layout := range []string{DateLayout, "2006-1-2", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, key); err == nil {
			return DateKey(t), nil
		}
	}
	return "", ErrInvalidDate
}
