package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appenv "github.com/turtacn/chemenv/internal/application/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/database/memory"
	"github.com/turtacn/chemenv/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/chemenv/internal/testutil"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

type published struct {
	topic, eventType, key string
	payload               envtypes.PatternAnalyzed
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []published
	err   error
}

func (p *fakePublisher) PublishPayload(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, published{topic: topic, eventType: eventType, key: key, payload: payload.(envtypes.PatternAnalyzed)})
	return nil
}

type failingAnalyzer struct{ err error }

func (a failingAnalyzer) Analyze(context.Context, string) (*envtypes.AnalysisResult, error) {
	return nil, a.err
}

func submitted(t *testing.T, eventType string, payload interface{}) *common.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(eventType, "test", payload)
	require.NoError(t, err)
	pm, err := env.ToMessage(kafka.TopicPatternSubmitted)
	require.NoError(t, err)
	return &common.Message{Topic: pm.Topic, Key: pm.Key, Value: pm.Value, Headers: pm.Headers}
}

func newTestHandler(a analyzer, p resultPublisher) *patternHandler {
	return newPatternHandler(a, p, testutil.NewMockLogger(), 0)
}

func TestPatternHandler_PublishesResult(t *testing.T) {
	pub := &fakePublisher{}
	svc := appenv.NewService(memory.NewEnvironmentRepository(), testutil.NewMockLogger())
	h := newTestHandler(svc, pub)

	msg := submitted(t, kafka.EventPatternSubmitted, envtypes.PatternSubmitted{RequestID: "req-1", Pattern: "[#6X4:1]-[#6X4:2]"})
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, pub.calls, 1)
	got := pub.calls[0]
	assert.Equal(t, kafka.TopicPatternAnalyzed, got.topic)
	assert.Equal(t, kafka.EventPatternAnalyzed, got.eventType)
	assert.Equal(t, "req-1", got.key)
	require.NotNil(t, got.payload.Result)
	assert.Nil(t, got.payload.Error)
	assert.Equal(t, "Bond", got.payload.Result.Category)
	assert.Equal(t, "[#6X4:1]-[#6X4:2]", got.payload.Pattern)
}

func TestPatternHandler_PatternErrorIsAnswered(t *testing.T) {
	pub := &fakePublisher{}
	svc := appenv.NewService(memory.NewEnvironmentRepository(), testutil.NewMockLogger())
	h := newTestHandler(svc, pub)

	msg := submitted(t, kafka.EventPatternSubmitted, envtypes.PatternSubmitted{RequestID: "req-2", Pattern: "[#6:1](-[#6]"})
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, pub.calls, 1)
	out := pub.calls[0].payload
	assert.Nil(t, out.Result)
	require.NotNil(t, out.Error)
	assert.Equal(t, string(errors.ErrCodePatternParseFailed), out.Error.Code)
}

func TestPatternHandler_RequestIDFallsBackToEventID(t *testing.T) {
	pub := &fakePublisher{}
	svc := appenv.NewService(memory.NewEnvironmentRepository(), testutil.NewMockLogger())
	h := newTestHandler(svc, pub)

	msg := submitted(t, kafka.EventPatternSubmitted, envtypes.PatternSubmitted{Pattern: "[#6X4:1]"})
	var env kafka.EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))

	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, pub.calls, 1)
	assert.Equal(t, env.EventID, pub.calls[0].key)
	assert.Equal(t, env.EventID, pub.calls[0].payload.RequestID)
}

func TestPatternHandler_TransientFailuresAreRetried(t *testing.T) {
	cases := map[string]error{
		"oracle":   errors.New(errors.ErrCodePatternOracleUnavailable, "oracle down"),
		"deadline": context.DeadlineExceeded,
		"timeout":  errors.Wrap(context.Canceled, errors.ErrCodeTimeout, "cancelled"),
	}
	for name, cause := range cases {
		t.Run(name, func(t *testing.T) {
			pub := &fakePublisher{}
			h := newTestHandler(failingAnalyzer{err: cause}, pub)
			msg := submitted(t, kafka.EventPatternSubmitted, envtypes.PatternSubmitted{RequestID: "r", Pattern: "[#6:1]"})
			err := h.Handle(context.Background(), msg)
			require.Error(t, err)
			assert.Empty(t, pub.calls)
		})
	}
}

func TestPatternHandler_PublishFailure(t *testing.T) {
	pub := &fakePublisher{err: stderrors.New("broker down")}
	svc := appenv.NewService(memory.NewEnvironmentRepository(), testutil.NewMockLogger())
	h := newTestHandler(svc, pub)

	msg := submitted(t, kafka.EventPatternSubmitted, envtypes.PatternSubmitted{RequestID: "r", Pattern: "[#6X4:1]"})
	assert.EqualError(t, h.Handle(context.Background(), msg), "broker down")
}

func TestPatternHandler_BadMessages(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHandler(failingAnalyzer{}, pub)

	err := h.Handle(context.Background(), &common.Message{Topic: kafka.TopicPatternSubmitted, Value: []byte("{not json")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	err = h.Handle(context.Background(), &common.Message{Topic: kafka.TopicPatternSubmitted})
	assert.Error(t, err)

	// Unrelated events on the topic are acknowledged and ignored.
	msg := submitted(t, "something.else", map[string]string{"x": "y"})
	assert.NoError(t, h.Handle(context.Background(), msg))
	assert.Empty(t, pub.calls)
}

//Personal.AI order the ending
