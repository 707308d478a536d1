package schedule

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache holds the most recently resolved daily schedule and refreshes it
// lazily when a query instant reaches the cached day's closing point.
// All access is serialized through an internal RWMutex; construct one
// instance at startup and share it.
type Cache struct {
	mu      sync.RWMutex
	def     *Definition
	sunsets SunsetProvider
	daily   DailySchedule // nil until the first successful resolution
}

// NewCache creates an unresolved cache for the given definition.
func NewCache(def *Definition, sunsets SunsetProvider) *Cache {
	return &Cache{
		def:     def,
		sunsets: sunsets,
	}
}

// Definition returns the immutable schedule definition.
func (c *Cache) Definition() *Definition {
	return c.def
}

// EnsureFresh recomputes the daily schedule if none is cached or the cached
// one is stale for instant. It reports whether a recomputation happened.
// On resolution failure the previously cached schedule is left intact.
func (c *Cache) EnsureFresh(instant time.Time) (bool, error) {
	c.mu.RLock()
	fresh := c.isFresh(instant)
	c.mu.RUnlock()
	if fresh {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the write lock.
	if c.isFresh(instant) {
		return false, nil
	}

	if err := c.refreshLocked(instant); err != nil {
		return false, err
	}
	return true, nil
}

// ForceRefresh unconditionally recomputes the daily schedule, regardless of
// staleness. Used for operator-triggered resynchronization.
func (c *Cache) ForceRefresh(instant time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(instant)
}

// isFresh reports whether the cached schedule still covers instant.
// The closing repeat point at +24h triggers a refresh exactly when reached.
func (c *Cache) isFresh(instant time.Time) bool {
	return c.daily != nil && instant.Before(c.daily[len(c.daily)-1].Time)
}

func (c *Cache) refreshLocked(instant time.Time) error {
	daily, err := ResolveDay(c.def, c.sunsets, instant)
	if err != nil {
		return err
	}
	c.daily = daily

	log.Info().
		Time("from", daily[0].Time).
		Time("until", daily[len(daily)-1].Time).
		Int("points", len(daily)).
		Msg("Resolved daily schedule")
	return nil
}

// ActionAt refreshes the cache if needed and returns the blended action for
// instant, along with whether a recomputation happened.
func (c *Cache) ActionAt(instant time.Time) (ChangeAction, bool, error) {
	refreshed, err := c.EnsureFresh(instant)
	if err != nil {
		return ChangeAction{}, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	action, err := ActionAt(c.daily, instant)
	return action, refreshed, err
}

// DebugSnapshot is a full diagnostic view of one schedule query.
type DebugSnapshot struct {
	Timezone  string              `json:"timezone"`
	Instant   time.Time           `json:"instant"`
	Raw       []RawChangePoint    `json:"raw_schedule"`
	Resolved  DailySchedule       `json:"resolved_schedule"`
	Before    ResolvedChangePoint `json:"before"`
	After     ResolvedChangePoint `json:"after"`
	Action    ChangeAction        `json:"action"`
	Refreshed bool                `json:"refreshed"`
}

// Snapshot refreshes the cache if needed and returns the resolved schedule,
// the surrounding pair for instant, and the blended action.
func (c *Cache) Snapshot(instant time.Time) (*DebugSnapshot, error) {
	refreshed, err := c.EnsureFresh(instant)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	before, after, err := SurroundingPoints(c.daily, instant)
	if err != nil {
		return nil, err
	}
	action, err := Blend(before, after, instant)
	if err != nil {
		return nil, err
	}

	resolved := make(DailySchedule, len(c.daily))
	copy(resolved, c.daily)

	return &DebugSnapshot{
		Timezone:  c.def.Location.Timezone,
		Instant:   instant,
		Raw:       c.def.Points,
		Resolved:  resolved,
		Before:    before,
		After:     after,
		Action:    action,
		Refreshed: refreshed,
	}, nil
}
