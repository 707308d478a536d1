// Package hue pushes the schedule's current action to a Hue bridge group.
package hue

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/amimof/huego"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/hueplan/internal/config"
	"github.com/dokzlo13/hueplan/internal/schedule"
)

// Applier periodically queries the schedule cache and applies Color actions
// to a named light group. Stop/none actions apply nothing.
type Applier struct {
	bridge   *huego.Bridge
	group    string
	cache    *schedule.Cache
	tz       *time.Location
	interval time.Duration
	limiter  *rate.Limiter
}

// NewApplier creates an applier for the configured bridge and group.
func NewApplier(cfg config.HueConfig, cache *schedule.Cache, tz *time.Location) *Applier {
	return &Applier{
		bridge:   huego.New(cfg.Bridge, cfg.Token),
		group:    cfg.Group,
		cache:    cache,
		tz:       tz,
		interval: cfg.PushInterval.Duration(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
	}
}

// Run applies the current action once and then on every tick until the
// context is cancelled.
func (a *Applier) Run(ctx context.Context) error {
	log.Info().
		Str("group", a.group).
		Dur("interval", a.interval).
		Msg("Starting Hue applier")

	a.apply(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.apply(ctx)
		}
	}
}

func (a *Applier) apply(ctx context.Context) {
	instant := schedule.Now(a.tz)

	action, _, err := a.cache.ActionAt(instant)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute current action")
		return
	}
	if action.IsNone() {
		log.Debug().Msg("No lighting change to apply")
		return
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return
	}

	group, err := a.findGroup()
	if err != nil {
		log.Error().Err(err).Str("group", a.group).Msg("Failed to find light group")
		return
	}

	if err := group.Ct(action.Color.Mirek); err != nil {
		log.Error().Err(err).Msg("Failed to set color temperature")
		return
	}
	if err := group.Bri(toHueBrightness(action.Color.Brightness)); err != nil {
		log.Error().Err(err).Msg("Failed to set brightness")
		return
	}

	log.Info().
		Uint16("mirek", action.Color.Mirek).
		Uint8("brightness", action.Color.Brightness).
		Str("group", a.group).
		Msg("Applied lighting change")
}

func (a *Applier) findGroup() (*huego.Group, error) {
	groups, err := a.bridge.GetGroups()
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	for i := range groups {
		if groups[i].Name == a.group {
			return &groups[i], nil
		}
	}
	return nil, fmt.Errorf("group %q not found on bridge", a.group)
}

// toHueBrightness scales a 0-100 brightness to the bridge's 1-254 range.
func toHueBrightness(percent uint8) uint8 {
	bri := uint8(math.Round(float64(percent) / 100 * 254))
	if bri < 1 {
		bri = 1
	}
	return bri
}
