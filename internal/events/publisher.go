package events

import (
	"context"

	"github.com/anonstay/service-booking/internal/pkg/kafka"
	"go.uber.org/zap"
)

const eventSource = "service-booking"

// Publisher emits booking lifecycle events to Kafka. Publishing is
// best-effort: a broker failure is logged and swallowed so the domain
// operation that triggered the event always stands.
type Publisher struct {
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewPublisher creates a new event publisher.
func NewPublisher(producer *kafka.Producer, logger *zap.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

// Publish wraps the payload in a CloudEvent and writes it to the booking topic.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) {
	if p.producer == nil {
		return
	}

	event, err := kafka.NewCloudEvent(eventSource, eventType, payload)
	if err != nil {
		p.logger.Error("failed to create cloud event",
			zap.String("type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := p.producer.PublishEvent(ctx, TopicBookingEvents, event); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
