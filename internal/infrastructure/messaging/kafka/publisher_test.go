package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/testutil"
	"github.com/turtacn/chemenv/pkg/types/common"
)

type fakeProducer struct {
	msgs   []*common.ProducerMessage
	failOn string
}

func (f *fakeProducer) Publish(ctx context.Context, msg *common.ProducerMessage) error {
	if msg.Topic == f.failOn {
		return errors.New("broker unavailable")
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func createdEvent(id string) *environment.EnvironmentCreatedEvent {
	return &environment.EnvironmentCreatedEvent{
		BaseEvent: common.NewBaseEvent(environment.EventEnvironmentCreated, id),
		SMIRKS:    "[#6:1]",
		Category:  "Atom",
		Version:   1,
	}
}

func TestEventPublisher_Publish(t *testing.T) {
	prod := &fakeProducer{}
	p := NewEventPublisher(prod, testutil.NewMockLogger(), nil)

	ev := createdEvent("env-1")
	ctx := logging.WithRequestID(context.Background(), "req-9")
	require.NoError(t, p.Publish(ctx, ev))

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, TopicEnvironmentCreated, msg.Topic)
	assert.Equal(t, "env-1", string(msg.Key))
	assert.Equal(t, "req-9", msg.Headers["trace_id"])
	assert.Equal(t, ev.OccurredAt(), msg.Timestamp)

	var envl EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &envl))
	assert.Equal(t, ev.EventID(), envl.EventID)
	assert.Equal(t, environment.EventEnvironmentCreated, envl.EventType)
	assert.Equal(t, EventSource, envl.Source)

	var decoded environment.EnvironmentCreatedEvent
	require.NoError(t, envl.DecodePayload(&decoded))
	assert.Equal(t, "[#6:1]", decoded.SMIRKS)
	assert.Equal(t, int64(1), decoded.Version)
}

func TestEventPublisher_SkipsUnknownEventType(t *testing.T) {
	prod := &fakeProducer{}
	log := testutil.NewMockLogger()
	p := NewEventPublisher(prod, log, nil)

	unknown := common.NewBaseEvent("environment.renamed", "env-1")
	require.NoError(t, p.Publish(context.Background(), unknown))
	assert.Empty(t, prod.msgs)
	assert.True(t, log.HasMessage("warn", "No topic for event type"))
}

func TestEventPublisher_JoinsFailures(t *testing.T) {
	prod := &fakeProducer{failOn: TopicEnvironmentCreated}
	log := testutil.NewMockLogger()
	p := NewEventPublisher(prod, log, nil)

	deleted := &environment.EnvironmentDeletedEvent{
		BaseEvent: common.NewBaseEvent(environment.EventEnvironmentDeleted, "env-2"),
		Version:   3,
	}
	err := p.Publish(context.Background(), createdEvent("env-1"), deleted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")

	require.Len(t, prod.msgs, 1)
	assert.Equal(t, TopicEnvironmentDeleted, prod.msgs[0].Topic)
	assert.True(t, log.HasField("error", logging.FieldEnvironmentID))
}

func TestEventPublisher_PublishPayload(t *testing.T) {
	prod := &fakeProducer{}
	p := NewEventPublisher(prod, testutil.NewMockLogger(), nil)

	err := p.PublishPayload(context.Background(), TopicPatternAnalyzed, "pattern.analyzed", "abc",
		map[string]string{"category": "Bond"})
	require.NoError(t, err)
	require.Len(t, prod.msgs, 1)
	assert.Equal(t, "abc", string(prod.msgs[0].Key))
	assert.Equal(t, "pattern.analyzed", prod.msgs[0].Headers["event_type"])
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), createdEvent("x")))
}

//Personal.AI order the ending
