package schedule

import (
	"errors"
	"testing"
	"time"
)

// switchableSunsets returns sunset at 20:00 on ref's day, and can be flipped
// into a failing state.
type switchableSunsets struct {
	err   error
	calls int
}

func (f *switchableSunsets) SunsetTime(lat, lon float64, tz *time.Location, ref time.Time) (time.Time, error) {
	f.calls++
	if f.err != nil {
		return time.Time{}, f.err
	}
	day := ref.In(tz)
	return time.Date(day.Year(), day.Month(), day.Day(), 20, 0, 0, 0, tz), nil
}

func scenarioCache(t *testing.T) (*Cache, *switchableSunsets, *time.Location) {
	t.Helper()
	tz := chicago(t)
	def := testDefinition(t,
		RawChangePoint{Hour: ptr(int8(10)), Change: colorChange(200, 10)},
		RawChangePoint{Hour: ptr(int8(20)), Change: colorChange(400, 90)},
	)
	sunsets := &switchableSunsets{}
	return NewCache(def, sunsets), sunsets, tz
}

func TestCache_EnsureFreshResolvesOnce(t *testing.T) {
	cache, sunsets, tz := scenarioCache(t)
	instant := time.Date(2024, 6, 1, 15, 0, 0, 0, tz)

	refreshed, err := cache.EnsureFresh(instant)
	if err != nil {
		t.Fatalf("EnsureFresh returned error: %v", err)
	}
	if !refreshed {
		t.Error("first EnsureFresh should recompute")
	}

	refreshed, err = cache.EnsureFresh(instant.Add(time.Hour))
	if err != nil {
		t.Fatalf("EnsureFresh returned error: %v", err)
	}
	if refreshed {
		t.Error("EnsureFresh on a fresh cache should not recompute")
	}
	if sunsets.calls != 1 {
		t.Errorf("sunset provider called %d times, want 1", sunsets.calls)
	}
}

func TestCache_RefreshTriggersAtClosingPoint(t *testing.T) {
	cache, sunsets, tz := scenarioCache(t)
	instant := time.Date(2024, 6, 1, 15, 0, 0, 0, tz)

	if _, err := cache.EnsureFresh(instant); err != nil {
		t.Fatalf("EnsureFresh returned error: %v", err)
	}

	// The closing repeat point sits at first point + 24h; reaching it
	// exactly must trigger a recomputation.
	closing := time.Date(2024, 6, 2, 10, 0, 0, 0, tz)

	refreshed, err := cache.EnsureFresh(closing.Add(-time.Second))
	if err != nil {
		t.Fatalf("EnsureFresh returned error: %v", err)
	}
	if refreshed {
		t.Error("instant just before the closing point should not recompute")
	}

	refreshed, err = cache.EnsureFresh(closing)
	if err != nil {
		t.Fatalf("EnsureFresh returned error: %v", err)
	}
	if !refreshed {
		t.Error("instant at the closing point should recompute")
	}
	if sunsets.calls != 2 {
		t.Errorf("sunset provider called %d times, want 2", sunsets.calls)
	}
}

func TestCache_FailedRefreshKeepsPreviousSchedule(t *testing.T) {
	cache, sunsets, tz := scenarioCache(t)
	instant := time.Date(2024, 6, 1, 15, 0, 0, 0, tz)

	if _, err := cache.EnsureFresh(instant); err != nil {
		t.Fatalf("EnsureFresh returned error: %v", err)
	}

	sunsets.err = errors.New("astro offline")
	stale := time.Date(2024, 6, 2, 12, 0, 0, 0, tz)
	if refreshed, err := cache.EnsureFresh(stale); err == nil || refreshed {
		t.Fatalf("EnsureFresh on failing provider = (%v, %v), want error and no refresh", refreshed, err)
	}

	// The previously resolved day must still answer queries in its range.
	action, refreshed, err := cache.ActionAt(instant)
	if err != nil {
		t.Fatalf("ActionAt after failed refresh returned error: %v", err)
	}
	if refreshed {
		t.Error("ActionAt in the old range should not refresh")
	}
	if action.Color == nil || action.Color.Mirek != 300 {
		t.Errorf("ActionAt = %+v, want midpoint blend from the kept schedule", action.Color)
	}
}

func TestCache_ForceRefreshAlwaysRecomputes(t *testing.T) {
	cache, sunsets, tz := scenarioCache(t)
	instant := time.Date(2024, 6, 1, 15, 0, 0, 0, tz)

	if err := cache.ForceRefresh(instant); err != nil {
		t.Fatalf("ForceRefresh returned error: %v", err)
	}
	if err := cache.ForceRefresh(instant); err != nil {
		t.Fatalf("second ForceRefresh returned error: %v", err)
	}
	if sunsets.calls != 2 {
		t.Errorf("sunset provider called %d times, want 2", sunsets.calls)
	}
}

func TestCache_ActionAt(t *testing.T) {
	cache, _, tz := scenarioCache(t)
	instant := time.Date(2024, 6, 1, 15, 0, 0, 0, tz)

	action, refreshed, err := cache.ActionAt(instant)
	if err != nil {
		t.Fatalf("ActionAt returned error: %v", err)
	}
	if !refreshed {
		t.Error("first ActionAt should refresh")
	}
	if action.Color == nil || action.Color.Mirek != 300 || action.Color.Brightness != 50 {
		t.Errorf("ActionAt = %+v, want mirek=300 brightness=50", action.Color)
	}

	_, refreshed, err = cache.ActionAt(instant.Add(time.Minute))
	if err != nil {
		t.Fatalf("second ActionAt returned error: %v", err)
	}
	if refreshed {
		t.Error("second ActionAt should serve from cache")
	}
}

func TestCache_Snapshot(t *testing.T) {
	cache, _, tz := scenarioCache(t)
	instant := time.Date(2024, 6, 1, 15, 0, 0, 0, tz)

	snap, err := cache.Snapshot(instant)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	if snap.Timezone != "America/Chicago" {
		t.Errorf("snapshot timezone = %q", snap.Timezone)
	}
	if len(snap.Raw) != 2 || len(snap.Resolved) != 3 {
		t.Errorf("snapshot sizes: raw=%d resolved=%d, want 2 and 3", len(snap.Raw), len(snap.Resolved))
	}
	if !snap.Instant.Equal(instant) {
		t.Errorf("snapshot instant = %s, want %s", snap.Instant, instant)
	}
	if !snap.Before.Time.Before(snap.After.Time) {
		t.Errorf("surrounding pair out of order: %s, %s", snap.Before.Time, snap.After.Time)
	}
	if snap.Action.Color == nil || snap.Action.Color.Mirek != 300 {
		t.Errorf("snapshot action = %+v, want midpoint blend", snap.Action.Color)
	}
	if !snap.Refreshed {
		t.Error("first snapshot should report a refresh")
	}
}
