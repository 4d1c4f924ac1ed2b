package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Message is a domain event ready for delivery.
type Message struct {
	ID         string
	Key        string
	Type       string
	Payload    []byte
	OccurredAt time.Time
}

// Publisher delivers events to a downstream bus. Publish is all-or-nothing per call.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
	Close() error
}

// LogPublisher writes events to the application log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher constructs a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs every message at info level.
func (p *LogPublisher) Publish(ctx context.Context, msgs ...Message) error {
	for _, msg := range msgs {
		p.logger.Info("event published",
			zap.String("event_id", msg.ID),
			zap.String("event_type", msg.Type),
			zap.String("key", msg.Key),
			zap.ByteString("payload", msg.Payload),
		)
	}
	return nil
}

// Close implements Publisher.
func (p *LogPublisher) Close() error { return nil }
