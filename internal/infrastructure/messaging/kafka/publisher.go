package kafka

import (
	"context"
	stderrors "errors"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/pkg/types/common"
)

// MessageProducer is the part of Producer the publishers need.
type MessageProducer interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// EventPublisher wraps domain events in an EventEnvelope keyed by aggregate
// id, so all events of one environment land on one partition in order.
type EventPublisher struct {
	producer MessageProducer
	logger   logging.Logger
	metrics  *prometheus.AppMetrics
}

var _ environment.EventPublisher = (*EventPublisher)(nil)

func NewEventPublisher(producer MessageProducer, logger logging.Logger, metrics *prometheus.AppMetrics) *EventPublisher {
	if metrics == nil {
		metrics = prometheus.NewNoopMetrics()
	}
	return &EventPublisher{producer: producer, logger: logger, metrics: metrics}
}

// Publish sends every event and returns the joined failures.
func (p *EventPublisher) Publish(ctx context.Context, events ...common.DomainEvent) error {
	var errs []error
	for _, ev := range events {
		topic := TopicForEvent(ev.EventType())
		if topic == "" {
			p.logger.Warn("No topic for event type", logging.String("event_type", ev.EventType()))
			continue
		}
		err := p.publishOne(ctx, topic, ev)
		prometheus.RecordPublish(p.metrics, topic, err)
		if err != nil {
			p.logger.WithContext(ctx).WithError(err).Error("Failed to publish event",
				logging.String(logging.FieldTopic, topic),
				logging.String(logging.FieldEnvironmentID, ev.AggregateID()))
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (p *EventPublisher) publishOne(ctx context.Context, topic string, ev common.DomainEvent) error {
	msg, err := p.envelope(ctx, ev.EventType(), ev)
	if err != nil {
		return err
	}
	msg.Topic = topic
	msg.Key = []byte(ev.AggregateID())
	msg.Timestamp = ev.OccurredAt()
	return p.producer.Publish(ctx, msg)
}

// PublishPayload sends an arbitrary payload, such as an analysis result, to
// topic under key.
func (p *EventPublisher) PublishPayload(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	msg, err := p.envelope(ctx, eventType, payload)
	if err == nil {
		msg.Topic = topic
		msg.Key = []byte(key)
		err = p.producer.Publish(ctx, msg)
	}
	prometheus.RecordPublish(p.metrics, topic, err)
	return err
}

func (p *EventPublisher) envelope(ctx context.Context, eventType string, payload interface{}) (*common.ProducerMessage, error) {
	env, err := NewEventEnvelope(eventType, EventSource, payload)
	if err != nil {
		return nil, err
	}
	if ev, ok := payload.(common.DomainEvent); ok {
		env.EventID = ev.EventID()
		env.Timestamp = ev.OccurredAt()
	}
	env.TraceID = logging.RequestIDFromContext(ctx)
	return env.ToMessage("")
}

// NoopPublisher drops every event. Used when the event bus is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...common.DomainEvent) error { return nil }

//Personal.AI order the ending
