// Package kafka publishes entry events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/eventstream"
)

// DefaultTopic is the topic entry events are published to when none is
// configured.
const DefaultTopic = "biographer.entries"

// Publisher implements eventstream.Publisher on top of kafka-go.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of broker addresses, e.g. ["localhost:9092"].
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic if empty.
	Topic string
}

// NewPublisher creates a Kafka-backed entry event publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &kafkago.Hash{},
	}

	logger.Info("kafka entry event publisher initialized",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishEntry writes one entry event, keyed by its vector entry ID so all
// events for a row land on the same partition.
func (p *Publisher) PublishEntry(ctx context.Context, event *eventstream.EntryRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilEntryEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling entry event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.Entry.EntryID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing entry event: %w", err)
	}

	p.logger.Debug("published entry event",
		zap.String("event_id", event.EventID),
		zap.String("entry_id", event.Entry.EntryID),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Ensure Publisher implements eventstream.Publisher
var _ eventstream.Publisher = (*Publisher)(nil)
