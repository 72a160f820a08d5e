// Package kafka publishes ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// batchTimeout bounds how long an event waits for others to share its batch.
const batchTimeout = 10 * time.Millisecond

// Publisher implements adapter.EventPublisher on a kafka-go writer.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher writing to topic. Events sharing a key are
// routed to the same partition. Writes are asynchronous: Publish only queues
// the event and delivery failures are logged.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           batchTimeout,
			Async:                  true,
			Completion:             logFailedDelivery,
			AllowAutoTopicCreation: true,
		},
	}
}

func logFailedDelivery(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range messages {
		slog.Error("Failed to deliver ledger event",
			"key", string(msg.Key),
			"type", eventType(msg),
			"error", err,
		)
	}
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event-type" {
			return string(h.Value)
		}
	}
	return ""
}

// Publish queues one event.
func (p *Publisher) Publish(ctx context.Context, key string, event valueobject.LedgerEvent) error {
	msg, err := message(key, event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close flushes queued events and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func message(key string, event valueobject.LedgerEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}, nil
}

// NoopPublisher drops every event. It is used when no brokers are configured.
type NoopPublisher struct{}

// Publish logs the event at debug level and returns nil.
func (NoopPublisher) Publish(_ context.Context, key string, event valueobject.LedgerEvent) error {
	slog.Debug("Ledger event dropped, publishing disabled", "key", key, "type", event.Type)
	return nil
}

// Close does nothing.
func (NoopPublisher) Close() error { return nil }

// PublisherCloser is an event publisher that owns a connection.
type PublisherCloser interface {
	adapter.EventPublisher
	Close() error
}

// New returns a Kafka publisher, or a NoopPublisher when brokers is empty.
func New(brokers []string, topic string) PublisherCloser {
	if len(brokers) == 0 {
		return NoopPublisher{}
	}
	return NewPublisher(brokers, topic)
}
