package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const contentTypeJSON = "application/json"

// Metadata keys set by NewJSONMessage.
const (
	MetaContentType = "content_type"
	MetaEventID     = "event_id"
)

// NewJSONMessage encodes v as the payload of a new message. eventID is kept in
// metadata so consumers can deduplicate without decoding the payload.
func NewJSONMessage(eventID string, v any) (*message.Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("events: encode payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetaContentType, contentTypeJSON)
	if eventID != "" {
		msg.Metadata.Set(MetaEventID, eventID)
	}
	return msg, nil
}

// DecodeJSON decodes a JSON message payload into T.
func DecodeJSON[T any](msg *message.Message) (T, error) {
	var v T
	if ct := msg.Metadata.Get(MetaContentType); ct != "" && ct != contentTypeJSON {
		return v, fmt.Errorf("events: message %s has content type %q", msg.UUID, ct)
	}
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("events: decode message %s: %w", msg.UUID, err)
	}
	return v, nil
}

// Publish sends msgs to topic outside any transaction.
func (b *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	injectTrace(ctx, msgs)
	if err := b.publisher.Publish(topic, msgs...); err != nil {
		return fmt.Errorf("events: publish %s: %w", topic, err)
	}
	return nil
}

// PublishInTx writes msgs to topic within tx, so they become visible to
// consumers only if tx commits. The destination table is created first, on a
// separate connection, because Watermill will not create schema inside a tx.
func (b *EventBus) PublishInTx(ctx context.Context, tx *sql.Tx, topic string, msgs ...*message.Message) error {
	table := topic
	if b.opts.Outbox {
		table = outboxTopic
	}
	if err := b.ensureTopic(table); err != nil {
		return err
	}
	pub, err := newSQLPublisher(tx, false, b.opts.Outbox, b.wlog)
	if err != nil {
		return err
	}
	injectTrace(ctx, msgs)
	if err := pub.Publish(topic, msgs...); err != nil {
		return fmt.Errorf("events: publish %s in tx: %w", topic, err)
	}
	return nil
}

func (b *EventBus) ensureTopic(topic string) error {
	if _, ok := b.topics.Load(topic); ok {
		return nil
	}
	if err := b.subscriber.SubscribeInitialize(topic); err != nil {
		return fmt.Errorf("events: initialize %s: %w", topic, err)
	}
	b.topics.Store(topic, struct{}{})
	return nil
}

// injectTrace copies the W3C trace context of ctx into each message.
func injectTrace(ctx context.Context, msgs []*message.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
	}
}

// extractTrace returns ctx carrying the trace context stored on msg.
func extractTrace(ctx context.Context, msg *message.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
}
