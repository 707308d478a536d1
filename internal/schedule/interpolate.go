package schedule

import (
	"fmt"
	"time"
)

// SurroundingPoints finds the adjacent pair (a, b) with
// a.Time <= instant < b.Time by linear scan over the resolved day.
func SurroundingPoints(s DailySchedule, instant time.Time) (ResolvedChangePoint, ResolvedChangePoint, error) {
	for i := 0; i+1 < len(s); i++ {
		a, b := s[i], s[i+1]
		if !instant.Before(a.Time) && instant.Before(b.Time) {
			return a, b, nil
		}
	}

	outOfRange := &OutOfRangeError{Instant: instant}
	if len(s) > 0 {
		outOfRange.First = s[0].Time
		outOfRange.Last = s[len(s)-1].Time
	}
	return ResolvedChangePoint{}, ResolvedChangePoint{}, outOfRange
}

// Blend computes the output action for an instant between two adjacent
// change points.
//
// A Stop on the left side means "no change". A Color on the left held
// against a Stop on the right keeps its value unchanged until the Stop
// point. Two Colors are linearly interpolated by elapsed-time fraction;
// blended mirek and brightness truncate toward zero.
func Blend(a, b ResolvedChangePoint, instant time.Time) (ChangeAction, error) {
	if b.Time.Before(a.Time) || instant.Before(a.Time) || instant.After(b.Time) {
		return ChangeAction{}, fmt.Errorf("%w: a=%s instant=%s b=%s", ErrInvalidBlendInput,
			a.Time.Format(time.RFC3339), instant.Format(time.RFC3339), b.Time.Format(time.RFC3339))
	}

	switch a.Change.Action {
	case ActionStop:
		return ChangeAction{}, nil
	case ActionColor:
	default:
		return ChangeAction{}, fmt.Errorf("unknown action: %d", a.Change.Action)
	}

	if a.Change.Mirek == nil || a.Change.Brightness == nil {
		return ChangeAction{}, fmt.Errorf("%w: point at %s", ErrMissingColorFields, a.Time.Format(time.RFC3339))
	}

	if b.Change.Action == ActionStop {
		// Hold the last color until the stop point; no fade toward nothing.
		return ChangeAction{Color: &ColorValue{Mirek: *a.Change.Mirek, Brightness: *a.Change.Brightness}}, nil
	}

	if b.Change.Mirek == nil || b.Change.Brightness == nil {
		return ChangeAction{}, fmt.Errorf("%w: point at %s", ErrMissingColorFields, b.Time.Format(time.RFC3339))
	}

	span := b.Time.Sub(a.Time)
	aWeight := 1.0
	if span > 0 {
		aWeight = float64(b.Time.Sub(instant)) / float64(span)
	}
	bWeight := 1 - aWeight

	mirek := uint16(aWeight*float64(*a.Change.Mirek) + bWeight*float64(*b.Change.Mirek))
	brightness := uint8(aWeight*float64(*a.Change.Brightness) + bWeight*float64(*b.Change.Brightness))

	return ChangeAction{Color: &ColorValue{Mirek: mirek, Brightness: brightness}}, nil
}

// ActionAt locates the surrounding pair for instant and blends it into a
// single output action.
func ActionAt(s DailySchedule, instant time.Time) (ChangeAction, error) {
	a, b, err := SurroundingPoints(s, instant)
	if err != nil {
		return ChangeAction{}, err
	}
	return Blend(a, b, instant)
}
