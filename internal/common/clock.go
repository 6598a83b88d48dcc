package common

import "time"

// Clock returns the current time. Components take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// ZoneClock is the wall clock read in loc.
func ZoneClock(loc *time.Location) Clock {
	if loc == nil {
		return SystemClock
	}
	return func() time.Time { return time.Now().In(loc) }
}

// RoundUp moves t forward to the next multiple of step minutes within the hour.
// Times already on a multiple are returned unchanged, seconds included.
func RoundUp(t time.Time, stepMinutes int) time.Time {
	if stepMinutes <= 0 {
		return t
	}
	if rem := t.Minute() % stepMinutes; rem != 0 {
		return t.Add(time.Duration(stepMinutes-rem) * time.Minute)
	}
	return t
}
