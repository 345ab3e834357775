package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/mealplanner/pkg/logger"
)

// Handler processes one message. Returning an error triggers a retry.
type Handler func(ctx context.Context, msg *message.Message) error

// RetryPolicy bounds handler retries. The delay doubles after each failure.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultRetry tries three times, waiting 1s then 2s.
var DefaultRetry = RetryPolicy{Attempts: 3, BaseDelay: time.Second}

// Subscribe consumes topic in the background until ctx ends or the bus closes.
//
// Each message is handled in a consumer span linked to the publisher's trace.
// A message is acked once the handler succeeds. If every attempt fails it is
// nacked and the final error is sent on the returned channel, which the
// caller must drain. Errors are dropped with a log line if the channel is full.
func (b *EventBus) Subscribe(ctx context.Context, topic string, handle Handler) (<-chan error, error) {
	msgs, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe %s: %w", topic, err)
	}

	errs := make(chan error, subscriberErrBufSize)
	tracer := otel.Tracer("mealplanner/events")

	b.handlers.Add(1)
	go func() {
		defer b.handlers.Done()
		defer close(errs)

		for msg := range msgs {
			msgCtx, span := tracer.Start(extractTrace(ctx, msg), topic+" process",
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(
					attribute.String("messaging.system", "watermill"),
					attribute.String("messaging.destination.name", topic),
					attribute.String("messaging.message.id", msg.UUID),
				),
			)
			err := b.opts.Retry.run(msgCtx, msg, handle, b.log)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "handler failed")
				msg.Nack()
				select {
				case errs <- fmt.Errorf("%s: message %s: %w", topic, msg.UUID, err):
				default:
					b.log.ErrorContext(msgCtx, "events: error channel full", "topic", topic, "error", err)
				}
			} else {
				msg.Ack()
			}
			span.End()
		}
	}()

	return errs, nil
}

func (p RetryPolicy) run(ctx context.Context, msg *message.Message, handle Handler, log logger.Logger) error {
	attempts := max(p.Attempts, 1)
	delay := p.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = handle(ctx, msg); err == nil {
			return nil
		}
		if attempt == attempts {
			return fmt.Errorf("handler failed after %d attempts: %w", attempts, err)
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"message_id", msg.UUID,
			"attempt", attempt,
			"next_delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
