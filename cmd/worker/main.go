package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/mealplanner/pkg/app"
	"github.com/ghuser/mealplanner/pkg/config"
	"github.com/ghuser/mealplanner/pkg/events"
	"github.com/ghuser/mealplanner/pkg/logger"
	"github.com/ghuser/mealplanner/pkg/telemetry"
	shoppingServices "github.com/ghuser/mealplanner/services/shopping/application/services"
	shoppingWorkflows "github.com/ghuser/mealplanner/services/shopping/application/workflows"
	shoppingEvents "github.com/ghuser/mealplanner/services/shopping/domain/events"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer otelShutdown(context.WithoutCancel(ctx)) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	a, err := app.Connect(ctx, cfg, log, app.Options{Role: "worker"})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	// Subscriptions stop when ctx is cancelled by a signal.
	if err := registerSubscribers(ctx, a); err != nil {
		return fmt.Errorf("register subscribers: %w", err)
	}

	if a.TemporalClient != nil {
		w := a.TemporalClient.NewWorker(a.TaskQueue)
		shoppingWorkflows.Register(w, shoppingServices.New(a).ShoppingList)
		if err := w.Start(); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
		defer w.Stop()
		log.Info("temporal worker started", "task_queue", a.TaskQueue)
	}

	<-ctx.Done()
	log.Info("shutting down worker...")
	return nil
}

// registerSubscribers wires all domain event handlers.
// Add new topics here as more services publish events.
func registerSubscribers(ctx context.Context, a *app.Application) error {
	errCh, err := a.EventBus.Subscribe(ctx, shoppingEvents.TopicShoppingListGenerated, handleShoppingListGenerated(a))
	if err != nil {
		return err
	}

	// Drain subscriber errors in background so the channel never blocks.
	go func() {
		for err := range errCh {
			a.Logger.ErrorContext(ctx, "subscriber error",
				"topic", shoppingEvents.TopicShoppingListGenerated,
				"error", err,
			)
			telemetry.CaptureError(ctx, err, map[string]string{"topic": shoppingEvents.TopicShoppingListGenerated})
		}
	}()

	a.Logger.Info("event subscribers registered", "topics", []string{shoppingEvents.TopicShoppingListGenerated})
	return nil
}

// handleShoppingListGenerated warms the Redis read model so the first GetByID
// after generation is served from cache. Warming is best effort: failures are
// logged and the message is acked.
func handleShoppingListGenerated(a *app.Application) events.Handler {
	svc := shoppingServices.New(a).ShoppingList
	return func(ctx context.Context, msg *message.Message) error {
		evt, err := events.DecodeJSON[shoppingEvents.ShoppingListGeneratedEvent](msg)
		if err != nil {
			// A payload that cannot be decoded will never succeed; drop it.
			a.Logger.ErrorContext(ctx, "undecodable shopping_list.generated event", "message_id", msg.UUID, "error", err)
			return nil
		}

		warmed, err := svc.Warm(ctx, evt.OwnerID, evt.ShoppingListID)
		if err != nil {
			a.Logger.WarnContext(ctx, "cache warm failed",
				"shopping_list_id", evt.ShoppingListID, "error", err)
			return nil
		}
		a.Logger.InfoContext(ctx, "cache warm done",
			"shopping_list_id", evt.ShoppingListID, "owner_id", evt.OwnerID,
			"item_count", evt.ItemCount, "written", warmed)
		return nil
	}
}
