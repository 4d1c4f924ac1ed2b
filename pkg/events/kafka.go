package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	headerEventType = "event-type"
	headerEventID   = "event-id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes events to a single Kafka topic keyed by aggregate ID.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaPublisher builds a synchronous writer that waits for all in-sync replicas.
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			WriteTimeout: timeout,
		},
		timeout: timeout,
	}, nil
}

// Publish writes msgs in a single batch.
func (p *KafkaPublisher) Publish(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out := make([]kafka.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, toKafka(msg))
	}
	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		return fmt.Errorf("publish %d events: %w", len(msgs), err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toKafka(msg Message) kafka.Message {
	ts := msg.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Payload,
		Time:  ts,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(msg.Type)},
			{Key: headerEventID, Value: []byte(msg.ID)},
		},
	}
}
