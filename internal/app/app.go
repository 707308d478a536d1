// Package app wires the configuration, schedule cache, HTTP API and
// optional Hue applier together and manages their lifecycle.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/hueplan/internal/astro"
	"github.com/dokzlo13/hueplan/internal/config"
	"github.com/dokzlo13/hueplan/internal/db"
	"github.com/dokzlo13/hueplan/internal/hue"
	"github.com/dokzlo13/hueplan/internal/schedule"
	"github.com/dokzlo13/hueplan/internal/server"
)

// App is the main application container.
type App struct {
	cfg      *config.Config
	database *db.DB
	cache    *schedule.Cache
	server   *server.Server
	applier  *hue.Applier
}

// New validates the configuration into a schedule definition and builds all
// services. Nothing is started yet.
func New(cfg *config.Config) (*App, error) {
	def, err := schedule.NewDefinition(cfg.Location, cfg.Schedule)
	if err != nil {
		return nil, err
	}

	var database *db.DB
	var calc *astro.Calculator
	if cfg.Database.Path != "" {
		database, err = db.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		calc = astro.NewCalculatorWithCache(astro.NewSunsetCache(database.DB))
		log.Info().Str("path", cfg.Database.Path).Msg("Persistent sunset cache enabled")
	} else {
		calc = astro.NewCalculator()
	}

	cache := schedule.NewCache(def, calc)

	a := &App{
		cfg:      cfg,
		database: database,
		cache:    cache,
		server:   server.New(cfg.Server.Host, cfg.Server.Port, cache, def.Timezone()),
	}
	if cfg.Hue.Enabled {
		a.applier = hue.NewApplier(cfg.Hue, cache, def.Timezone())
	}
	return a, nil
}

// Run starts all services and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	// Warm the cache so resolution problems surface immediately. A failure
	// here is recoverable (polar dates, for example) and does not abort.
	tz := a.cache.Definition().Timezone()
	if _, err := a.cache.EnsureFresh(schedule.Now(tz)); err != nil {
		log.Warn().Err(err).Msg("Initial schedule resolution failed")
	}

	if a.applier != nil {
		go func() {
			if err := a.applier.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Hue applier error")
			}
		}()
	}

	err := a.server.Run(ctx, a.cfg.ShutdownTimeout.Duration())

	if a.database != nil {
		if closeErr := a.database.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close database")
		}
	}
	return err
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
