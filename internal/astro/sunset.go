// Package astro computes sunset times for the configured location, with an
// in-memory per-day cache and an optional persistent cache.
package astro

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sixdouglas/suncalc"
)

// ErrSunsetUndefined is returned when the astronomical computation yields no
// sunset for the requested date and location (polar day/night).
var ErrSunsetUndefined = errors.New("sunset is undefined for this date and location")

// Calculator computes sunset timestamps.
type Calculator struct {
	mu    sync.RWMutex
	cache map[string]time.Time // keyed by "lat,lon,date"

	// Persistent sunset cache (optional, backed by SQLite)
	persistent *SunsetCache
}

// NewCalculator creates a calculator without persistent cache.
func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[string]time.Time),
	}
}

// NewCalculatorWithCache creates a calculator with a persistent sunset cache.
func NewCalculatorWithCache(persistent *SunsetCache) *Calculator {
	return &Calculator{
		cache:      make(map[string]time.Time),
		persistent: persistent,
	}
}

// SunsetTime returns the sunset timestamp for ref's calendar day in tz at
// the given coordinates.
func (c *Calculator) SunsetTime(lat, lon float64, tz *time.Location, ref time.Time) (time.Time, error) {
	day := ref.In(tz)
	key := fmt.Sprintf("%.4f,%.4f,%s", lat, lon, day.Format("2006-01-02"))

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if c.persistent != nil {
		if t, ok := c.persistent.Get(key); ok {
			sunset := t.In(tz)
			c.mu.Lock()
			c.cache[key] = sunset
			c.mu.Unlock()
			return sunset, nil
		}
	}

	times := suncalc.GetTimes(day, lat, lon)
	sunset := times[suncalc.Sunset].Value
	if !plausibleFor(sunset, day) {
		return time.Time{}, fmt.Errorf("%w: %.4f,%.4f on %s", ErrSunsetUndefined, lat, lon, day.Format("2006-01-02"))
	}
	sunset = sunset.In(tz)

	log.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Time("sunset", sunset).
		Msg("Computed sunset time")

	c.mu.Lock()
	c.cache[key] = sunset
	c.mu.Unlock()

	if c.persistent != nil {
		c.persistent.Put(key, sunset)
	}

	return sunset, nil
}

// plausibleFor rejects the garbage timestamps the solar math produces when
// the sun never crosses the horizon that day.
func plausibleFor(sunset, day time.Time) bool {
	if sunset.IsZero() {
		return false
	}
	return sunset.After(day.Add(-48*time.Hour)) && sunset.Before(day.Add(48*time.Hour))
}
