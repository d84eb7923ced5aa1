// Package kafka publishes freshly fused property resolutions to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bver-dev/bver/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces property.resolved messages.
// It implements fusion.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishResolution serializes res and writes it keyed by address so every
// resolution of one property lands on the same partition.
func (p *Publisher) PublishResolution(ctx context.Context, res domain.Resolution) error {
	msg, err := serializeToMessage(res)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish resolution: %w", err)
	}
	p.logger.Debug("resolution published", "topic", p.writer.Topic, "key", string(msg.Key))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Resolution into a Kafka message.
func serializeToMessage(res domain.Resolution) (kafkago.Message, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize resolution: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(res.Record.Address.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "data_source", Value: []byte(res.Record.DataSource)},
			{Key: "resolved_at", Value: []byte(res.ResolvedAt.Format(time.RFC3339))},
		},
	}, nil
}
