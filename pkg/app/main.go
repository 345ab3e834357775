// Package app connects the infrastructure shared by every process and hands
// it to service route and subscriber registration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/sessions"

	"github.com/ghuser/mealplanner/pkg/cache"
	"github.com/ghuser/mealplanner/pkg/config"
	"github.com/ghuser/mealplanner/pkg/database"
	"github.com/ghuser/mealplanner/pkg/events"
	"github.com/ghuser/mealplanner/pkg/logger"
	"github.com/ghuser/mealplanner/pkg/workflows"
)

// Application holds shared infrastructure dependencies for all services.
//
// Logger is trace-aware: the *Context methods add trace_id, span_id and
// request_id to every record.
//
//	app.Logger.InfoContext(ctx, "generating shopping list", "meal_plan_id", id)
type Application struct {
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient
	CacheTTL       time.Duration             // read-model TTL; zero means the cache default
	TemporalClient *workflows.TemporalClient // nil unless TEMPORAL_ENABLED
	TaskQueue      string                    // Temporal task queue for async generation
	SessionStore   sessions.Store            // set by the API process only

	closers []func() error
}

// Options selects the per-process parts of Connect.
type Options struct {
	// Role names the process ("api", "worker"); it suffixes the event consumer group.
	Role string
	// Outbox makes the event bus publish through the SQL outbox and starts the forwarder.
	Outbox bool
}

// Connect opens Postgres, the event bus, Redis and, when enabled, Temporal.
// If any step fails, everything opened before it is closed again.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (_ *Application, err error) {
	a := &Application{
		Logger:    log,
		CacheTTL:  cfg.ShoppingListCacheTTL,
		TaskQueue: cfg.TemporalTaskQueue,
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Db, err = database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.closers = append(a.closers, func() error { a.Db.Close(); return nil })
	log.Info("database pool connected")

	a.EventBus, err = events.NewEventBus(a.Db.DB(), events.Options{
		ConsumerGroup: cfg.ServiceName + "-" + opts.Role,
		Outbox:        opts.Outbox,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("event bus: %w", err)
	}
	a.closers = append(a.closers, a.EventBus.Close)
	if opts.Outbox {
		if err = a.EventBus.StartForwarder(ctx); err != nil {
			return nil, fmt.Errorf("event forwarder: %w", err)
		}
	}

	a.Redis, err = cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, a.Redis.Close)
	log.Info("redis connected")

	if cfg.TemporalEnabled {
		a.TemporalClient, err = workflows.NewTemporalClient(ctx, cfg.TemporalHostPort, cfg.TemporalNamespace, log)
		if err != nil {
			return nil, fmt.Errorf("connect temporal: %w", err)
		}
		a.closers = append(a.closers, func() error { a.TemporalClient.Close(); return nil })
	}

	return a, nil
}

// Close releases connections in reverse opening order.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
