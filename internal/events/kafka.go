package events

import (
	"context"
	"encoding/json"
	"fmt"

	"chowvest/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes events to a single topic. The writer is async, so
// Publish returns once the message is queued and delivery errors are logged
// from the completion callback.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	log := logger.Named("kafka")
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		RequiredAcks: kafka.RequireOne,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Errorw("Failed to deliver events", "count", len(messages), "error", err)
			}
		},
	}
	return &KafkaPublisher{writer: writer, log: log}
}

// Publish queues event.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Errorw("Failed to queue event", "type", event.Type, "key", event.Key, "error", err)
		return err
	}
	return nil
}

// Close flushes queued messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		p.log.Errorw("Failed to close Kafka writer", "error", err)
		return err
	}
	return nil
}

func encode(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}, nil
}
