// Package events is the Postgres-backed event bus built on Watermill's SQL
// transport.
//
// Subscribers sharing a consumer group split the messages of a topic between
// them; distinct groups each see every message. In outbox mode, publishes are
// written to an internal queue inside the caller's transaction and a forwarder
// moves them to their real topic once committed.
//
// Delivery is at least once. Handlers must be idempotent.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/mealplanner/pkg/logger"
)

const (
	outboxTopic          = "_outbox"
	outboxConsumerGroup  = "outbox-forwarder"
	handlerDrainTimeout  = 30 * time.Second
	subscriberErrBufSize = 100
)

// Options configures NewEventBus.
type Options struct {
	// ConsumerGroup names the group Subscribe joins. Required.
	ConsumerGroup string
	// Outbox routes publishes through the forwarder queue. The process that
	// publishes must also call StartForwarder.
	Outbox bool
	// Retry controls handler retries; the zero value uses DefaultRetry.
	Retry RetryPolicy
}

// EventBus publishes and consumes messages stored in Postgres tables managed
// by Watermill. It shares the caller's *sql.DB and never closes it.
type EventBus struct {
	db         *sql.DB
	opts       Options
	publisher  message.Publisher
	subscriber *watermillsql.Subscriber
	fwd        *forwarder.Forwarder
	wlog       *watermillLogger
	log        logger.Logger
	handlers   sync.WaitGroup
	topics     sync.Map // topic tables known to exist
}

// NewEventBus prepares a publisher and subscriber on db. Watermill creates its
// tables on first use.
func NewEventBus(db *sql.DB, opts Options, log logger.Logger) (*EventBus, error) {
	if opts.ConsumerGroup == "" {
		return nil, errors.New("events: consumer group is required")
	}
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetry
	}
	wlog := &watermillLogger{log: log.With("component", "events")}

	pub, err := newSQLPublisher(db, true, opts.Outbox, wlog)
	if err != nil {
		return nil, err
	}
	sub, err := newSQLSubscriber(db, opts.ConsumerGroup, wlog)
	if err != nil {
		_ = pub.Close()
		return nil, err
	}

	return &EventBus{
		db:         db,
		opts:       opts,
		publisher:  pub,
		subscriber: sub,
		wlog:       wlog,
		log:        log,
	}, nil
}

// newSQLPublisher returns a publisher writing through exec, a *sql.DB or a
// *sql.Tx. In outbox mode the
// messages are wrapped in forwarder envelopes addressed to outboxTopic.
func newSQLPublisher(exec watermillsql.ContextExecutor, initSchema, outbox bool, wlog *watermillLogger) (message.Publisher, error) {
	pub, err := watermillsql.NewPublisher(exec, watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: initSchema,
	}, wlog)
	if err != nil {
		return nil, fmt.Errorf("events: sql publisher: %w", err)
	}
	if !outbox {
		return pub, nil
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: outboxTopic}), nil
}

func newSQLSubscriber(db *sql.DB, group string, wlog *watermillLogger) (*watermillsql.Subscriber, error) {
	sub, err := watermillsql.NewSubscriber(db, watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}, wlog)
	if err != nil {
		return nil, fmt.Errorf("events: sql subscriber %s: %w", group, err)
	}
	return sub, nil
}

// StartForwarder runs the outbox forwarder until ctx ends or Close is called.
// It returns once the forwarder is consuming.
func (b *EventBus) StartForwarder(ctx context.Context) error {
	if !b.opts.Outbox {
		return errors.New("events: forwarder requires outbox mode")
	}
	if b.fwd != nil {
		return errors.New("events: forwarder already started")
	}

	sub, err := newSQLSubscriber(b.db, outboxConsumerGroup, b.wlog)
	if err != nil {
		return err
	}
	target, err := newSQLPublisher(b.db, true, false, b.wlog)
	if err != nil {
		_ = sub.Close()
		return err
	}
	fwd, err := forwarder.NewForwarder(sub, target, b.wlog, forwarder.Config{ForwarderTopic: outboxTopic})
	if err != nil {
		_ = target.Close()
		_ = sub.Close()
		return fmt.Errorf("events: forwarder: %w", err)
	}
	b.fwd = fwd

	b.handlers.Add(1)
	go func() {
		defer b.handlers.Done()
		if err := fwd.Run(ctx); err != nil {
			b.log.ErrorContext(ctx, "outbox forwarder stopped", "error", err)
			return
		}
		b.log.InfoContext(ctx, "outbox forwarder stopped")
	}()

	select {
	case <-fwd.Running():
		b.log.InfoContext(ctx, "outbox forwarder running")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for forwarder: %w", ctx.Err())
	}
}

// Ping checks the bus's database connection.
func (b *EventBus) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping: %w", err)
	}
	return nil
}

// Close stops consuming, waits for in-flight handlers and closes the publisher.
func (b *EventBus) Close() error {
	var errs []error
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close subscriber: %w", err))
	}
	if b.fwd != nil {
		if err := b.fwd.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: close forwarder: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		b.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(handlerDrainTimeout):
		b.log.Error("events: in-flight handlers did not finish before shutdown")
	}

	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close publisher: %w", err))
	}
	return errors.Join(errs...)
}
