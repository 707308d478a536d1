package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptySchedule is returned when a definition has no change points.
	ErrEmptySchedule = errors.New("schedule must contain at least one change point")

	// ErrInvalidTimeOfDay is returned for hour/minute outside 0-23 / 0-59.
	ErrInvalidTimeOfDay = errors.New("time of day out of range")

	// ErrNonexistentLocalTime is returned when a wall-clock time falls into a
	// DST gap and has no representation in the timezone.
	ErrNonexistentLocalTime = errors.New("local time does not exist in timezone")

	// ErrMissingColorFields is returned when a color change point reaches the
	// interpolation engine without mirek or brightness.
	ErrMissingColorFields = errors.New("color change point is missing mirek or brightness")

	// ErrInvalidBlendInput is returned when blend preconditions are violated.
	ErrInvalidBlendInput = errors.New("blend input out of order")
)

// UnsortedScheduleError reports the first adjacent pair of resolved change
// points that goes backward in time. This is a configuration bug (for
// example a sunset-anchored point drifting past a fixed point on some days)
// and is surfaced rather than repaired.
type UnsortedScheduleError struct {
	Index  int
	Before ResolvedChangePoint
	After  ResolvedChangePoint
}

func (e *UnsortedScheduleError) Error() string {
	return fmt.Sprintf("resolved schedule is not sorted: point %d at %s is after point %d at %s",
		e.Index, e.Before.Time.Format(time.RFC3339), e.Index+1, e.After.Time.Format(time.RFC3339))
}

// OutOfRangeError reports a query instant outside the resolved schedule's
// covered range. With a fresh schedule this should not happen; a stale or
// malformed one can still produce it.
type OutOfRangeError struct {
	Instant time.Time
	First   time.Time
	Last    time.Time
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("instant %s is outside the resolved schedule range [%s, %s)",
		e.Instant.Format(time.RFC3339), e.First.Format(time.RFC3339), e.Last.Format(time.RFC3339))
}
