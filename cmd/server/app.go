// cmd/server/app.go
package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/cache"
	"github.com/estrellaangel/VolleyTech/internal/config"
	"github.com/estrellaangel/VolleyTech/internal/csvimport"
	"github.com/estrellaangel/VolleyTech/internal/db"
	"github.com/estrellaangel/VolleyTech/internal/email"
	"github.com/estrellaangel/VolleyTech/internal/events"
	"github.com/estrellaangel/VolleyTech/internal/fixtures"
	"github.com/estrellaangel/VolleyTech/internal/identity"
	"github.com/estrellaangel/VolleyTech/internal/profiles"
	"github.com/estrellaangel/VolleyTech/internal/ratelimit"
	"github.com/estrellaangel/VolleyTech/internal/roster"
	"github.com/estrellaangel/VolleyTech/internal/scheduler"
)

// app holds the long-lived dependencies the handlers are wired to.
type app struct {
	database  *db.DB
	redis     *cache.RedisKV
	profiles  *profiles.Store
	resolver  *identity.Resolver
	directory *roster.Directory
	events    *events.Store
	importer  *csvimport.Importer
	limiter   *ratelimit.Limiter
	reminders bool

	closed bool
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.database = database

	var kv profiles.KV
	switch cfg.Profiles.Backend {
	case "redis":
		a.redis, err = cache.NewRedisKV(cfg.Redis.URL, cfg.Redis.Password)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		kv = a.redis
	case "memory":
		log.Warn().Msg("Mapping profiles kept in memory and lost on restart")
		kv = profiles.NewMemoryKV()
	default:
		kv = db.NewKV(database)
	}
	a.profiles = profiles.NewStore(kv, nil)
	a.resolver = identity.NewResolver(db.NewRefStore(database), nil)

	a.directory = &roster.Directory{}
	var seedEvents []events.TeamEvent
	if cfg.Fixtures.Path != "" {
		fx, err := fixtures.Load(cfg.Fixtures.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.directory = fx.Directory
		seedEvents = fx.Events
		if cfg.Fixtures.SeedRefs {
			if _, err := fixtures.SeedRefs(ctx, a.resolver, fx.Refs); err != nil {
				a.Close()
				return nil, err
			}
		}
		log.Info().
			Str("path", cfg.Fixtures.Path).
			Int("teams", len(fx.Directory.Teams)).
			Int("players", len(fx.Directory.Players)).
			Int("events", len(fx.Events)).
			Msg("Fixtures loaded")
	}
	a.events = events.NewStore(seedEvents, nil)
	a.importer = csvimport.NewImporter(a.profiles, a.resolver, a.directory)

	if cfg.HTTP.RateLimitEnabled {
		a.limiter = ratelimit.New(&ratelimit.Config{
			Requests: cfg.HTTP.RateLimitRequests,
			Window:   cfg.HTTP.RateLimitWindow,
		})
	}

	if cfg.Reminders.Enabled {
		if err := a.startReminders(cfg); err != nil {
			a.Close()
			return nil, err
		}
	}

	if refs, err := database.Queries.CountExternalPlayerRefs(ctx); err == nil {
		log.Info().Int64("external_refs", refs).Str("profile_backend", cfg.Profiles.Backend).Msg("Storage ready")
	}
	return a, nil
}

func (a *app) startReminders(cfg *config.Config) error {
	sender, err := email.NewSESClient(cfg.Reminders.AccessKey, cfg.Reminders.SecretKey, cfg.Reminders.Region, cfg.Reminders.Sender)
	if err != nil {
		return fmt.Errorf("create SES client: %w", err)
	}
	if err := scheduler.Init(); err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	svc, err := scheduler.ServiceInstance()
	if err != nil {
		return err
	}

	alerts := scheduler.NewEventAlerts(a.events, a.directory, sender, cfg.Reminders.Sender, cfg.Reminders.Window, nil)
	if err := scheduler.RegisterEventAlertJob(svc, alerts, cfg.Reminders.Cron); err != nil {
		return fmt.Errorf("register event alerts: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		return err
	}
	a.reminders = true
	return nil
}

// ping checks the stores that profile and ref writes go to.
func (a *app) ping(ctx context.Context) error {
	if err := a.database.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.redis != nil {
		if err := a.redis.HealthCheck(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close releases everything newApp opened. It is safe to call twice.
func (a *app) Close() {
	if a.closed {
		return
	}
	a.closed = true

	if a.reminders {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis")
		}
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
}
