package schedule

import (
	"fmt"
	"time"
)

// SunsetProvider computes the sunset timestamp for the reference instant's
// calendar day at the given coordinates. It fails when the astronomical
// result is degenerate (polar day/night).
type SunsetProvider interface {
	SunsetTime(lat, lon float64, tz *time.Location, ref time.Time) (time.Time, error)
}

// ResolveDay resolves every raw change point into an absolute timestamp for
// ref's calendar day, appends the first point repeated +24h to close the
// daily loop, and validates that the result never goes backward in time.
func ResolveDay(def *Definition, sunsets SunsetProvider, ref time.Time) (DailySchedule, error) {
	sunset, err := sunsets.SunsetTime(def.Location.Latitude, def.Location.Longitude, def.Timezone(), ref)
	if err != nil {
		return nil, fmt.Errorf("resolve sunset for %s: %w", ref.In(def.Timezone()).Format("2006-01-02"), err)
	}

	resolved := make(DailySchedule, 0, len(def.Points)+1)
	for i, raw := range def.Points {
		t, err := resolvePoint(def, raw, sunset, ref)
		if err != nil {
			return nil, fmt.Errorf("resolve change point %d: %w", i, err)
		}
		resolved = append(resolved, ResolvedChangePoint{Time: t, Change: raw.Change})
	}

	// Repeat the first point a day later so every instant between the last
	// defined point and the next day's first point has surrounding points.
	closing := resolved[0]
	closing.Time = closing.Time.Add(24 * time.Hour)
	resolved = append(resolved, closing)

	for i := 0; i+1 < len(resolved); i++ {
		if resolved[i].Time.After(resolved[i+1].Time) {
			return nil, &UnsortedScheduleError{Index: i, Before: resolved[i], After: resolved[i+1]}
		}
	}

	return resolved, nil
}

func resolvePoint(def *Definition, raw RawChangePoint, sunset, ref time.Time) (time.Time, error) {
	hour, minute := raw.Offsets()

	if raw.From == nil {
		return ResolveTimeOfDay(def.Timezone(), ref, hour, minute)
	}

	switch *raw.From {
	case FromSunset:
		// Duration arithmetic: minute overflow folds into hours naturally.
		delta := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
		return sunset.Add(delta), nil
	default:
		return time.Time{}, fmt.Errorf("unknown from reference: %d", *raw.From)
	}
}
