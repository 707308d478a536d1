// Package schedule implements the daily lighting schedule engine: parsing a
// declarative schedule definition, resolving sunset-relative change points
// into absolute timestamps for a calendar day, interpolating between adjacent
// points, and caching the resolved day until it goes stale.
package schedule

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Action is what a change point does to the lights.
type Action int

const (
	// ActionColor sets a color temperature and brightness.
	ActionColor Action = iota
	// ActionStop means "no further changes" until the next point.
	ActionStop
)

// ParseAction parses an action token from configuration.
func ParseAction(s string) (Action, error) {
	switch s {
	case "color":
		return ActionColor, nil
	case "stop":
		return ActionStop, nil
	default:
		return 0, fmt.Errorf("unknown action: %q", s)
	}
}

func (a Action) String() string {
	switch a {
	case ActionColor:
		return "color"
	case ActionStop:
		return "stop"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// UnmarshalYAML implements yaml.Unmarshaler for Action.
func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON implements json.Marshaler for Action.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler for Action.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// FromRef is the reference instant a change point's offset is measured from.
// Absolute wall-clock points carry no FromRef at all.
type FromRef int

const (
	// FromSunset anchors the point to that day's sunset time.
	FromSunset FromRef = iota
)

// ParseFromRef parses a "from" token from configuration.
func ParseFromRef(s string) (FromRef, error) {
	switch s {
	case "sunset":
		return FromSunset, nil
	default:
		return 0, fmt.Errorf("unknown from reference: %q", s)
	}
}

func (f FromRef) String() string {
	switch f {
	case FromSunset:
		return "sunset"
	default:
		return fmt.Sprintf("from(%d)", int(f))
	}
}

// UnmarshalYAML implements yaml.Unmarshaler for FromRef.
func (f *FromRef) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseFromRef(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalJSON implements json.Marshaler for FromRef.
func (f FromRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON implements json.Unmarshaler for FromRef.
func (f *FromRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFromRef(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// LocationConfig is the configured observer location for sunset calculations.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
	Timezone  string  `yaml:"timezone" json:"timezone"`
}

// ChangeDirective describes what a change point does. For ActionColor both
// Mirek and Brightness must be set; only ActionStop encodes "do nothing".
type ChangeDirective struct {
	Action     Action  `yaml:"action" json:"action"`
	Mirek      *uint16 `yaml:"mirek,omitempty" json:"mirek,omitempty"`
	Brightness *uint8  `yaml:"brightness,omitempty" json:"brightness,omitempty"`
}

// RawChangePoint is a single schedule entry as written in configuration.
// Hour and Minute default to 0. Without From they are the wall-clock hour and
// minute of the day; with From they are a signed delta from the anchor.
type RawChangePoint struct {
	Hour   *int8           `yaml:"hour,omitempty" json:"hour,omitempty"`
	Minute *int8           `yaml:"minute,omitempty" json:"minute,omitempty"`
	From   *FromRef        `yaml:"from,omitempty" json:"from,omitempty"`
	Change ChangeDirective `yaml:"change" json:"change"`
}

// Offsets returns the hour and minute with absent values defaulted to 0.
func (p RawChangePoint) Offsets() (hour, minute int) {
	if p.Hour != nil {
		hour = int(*p.Hour)
	}
	if p.Minute != nil {
		minute = int(*p.Minute)
	}
	return hour, minute
}

// ResolvedChangePoint is a change point with its time fixed to an absolute
// timestamp for a specific calendar day.
type ResolvedChangePoint struct {
	Time   time.Time       `json:"time"`
	Change ChangeDirective `json:"change"`
}

// DailySchedule is one day's resolved change points, closed by a repeat of
// the first point shifted +24h. Times are non-decreasing.
type DailySchedule []ResolvedChangePoint

// ColorValue is a concrete color temperature and brightness output.
type ColorValue struct {
	Mirek      uint16 `json:"mirek"`
	Brightness uint8  `json:"brightness"`
}

// ChangeAction is the blended output for a query instant. A nil Color means
// no change should be applied.
type ChangeAction struct {
	Color *ColorValue
}

// IsNone reports whether the action is "no change".
func (a ChangeAction) IsNone() bool {
	return a.Color == nil
}

// MarshalJSON encodes the action as "none" or {"color": {...}}, the wire
// shape downstream consumers validate against.
func (a ChangeAction) MarshalJSON() ([]byte, error) {
	if a.Color == nil {
		return json.Marshal("none")
	}
	return json.Marshal(struct {
		Color *ColorValue `json:"color"`
	}{Color: a.Color})
}
