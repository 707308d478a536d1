package schedule

import (
	"fmt"
	"time"
)

// Now returns the current instant expressed in the given timezone.
func Now(tz *time.Location) time.Time {
	return time.Now().In(tz)
}

// ResolveTimeOfDay builds an absolute timestamp for the given wall-clock
// hour and minute on date's calendar day in tz.
//
// During a DST fall-back overlap time.Date picks the earlier of the two
// candidate offsets, which is the behavior we want. During a spring-forward
// gap the requested wall-clock time does not exist; time.Date would silently
// shift it, so that case is detected and returned as an error instead.
func ResolveTimeOfDay(tz *time.Location, date time.Time, hour, minute int) (time.Time, error) {
	if hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("%w: hour %d", ErrInvalidTimeOfDay, hour)
	}
	if minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: minute %d", ErrInvalidTimeOfDay, minute)
	}

	local := date.In(tz)
	t := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, tz)
	if t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, fmt.Errorf("%w: %02d:%02d on %s in %s",
			ErrNonexistentLocalTime, hour, minute, local.Format("2006-01-02"), tz)
	}
	return t, nil
}
