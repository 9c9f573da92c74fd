package services

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the local time zone, so "today" is the
// user's calendar day.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}
