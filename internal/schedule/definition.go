package schedule

import (
	"fmt"
	"time"
)

// Definition is the parsed, validated static schedule configuration.
// It is immutable after construction and safe to share across goroutines.
type Definition struct {
	Location LocationConfig
	Points   []RawChangePoint

	tz *time.Location
}

// NewDefinition validates the configured location and change points and
// builds an immutable schedule definition. All validation failures here are
// load-time configuration errors.
func NewDefinition(loc LocationConfig, points []RawChangePoint) (*Definition, error) {
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", loc.Timezone, err)
	}

	if len(points) == 0 {
		return nil, ErrEmptySchedule
	}

	for i, p := range points {
		if err := validatePoint(p); err != nil {
			return nil, fmt.Errorf("schedule point %d: %w", i, err)
		}
	}

	return &Definition{
		Location: loc,
		Points:   points,
		tz:       tz,
	}, nil
}

// Timezone returns the loaded timezone of the definition.
func (d *Definition) Timezone() *time.Location {
	return d.tz
}

func validatePoint(p RawChangePoint) error {
	switch p.Change.Action {
	case ActionColor:
		if p.Change.Mirek == nil || p.Change.Brightness == nil {
			return ErrMissingColorFields
		}
	case ActionStop:
		// No payload to check.
	default:
		return fmt.Errorf("unknown action: %d", p.Change.Action)
	}

	// Sunset deltas may be negative and may exceed wall-clock ranges; only
	// absolute points are bound to a valid time of day.
	if p.From == nil {
		hour, minute := p.Offsets()
		if hour < 0 || hour > 23 {
			return fmt.Errorf("%w: hour %d", ErrInvalidTimeOfDay, hour)
		}
		if minute < 0 || minute > 59 {
			return fmt.Errorf("%w: minute %d", ErrInvalidTimeOfDay, minute)
		}
	}
	return nil
}
