package main

import (
	"context"
	stderrors "errors"
	"time"

	appenv "github.com/turtacn/chemenv/internal/application/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

type analyzer interface {
	Analyze(ctx context.Context, pattern string) (*envtypes.AnalysisResult, error)
}

type resultPublisher interface {
	PublishPayload(ctx context.Context, topic, eventType, key string, payload interface{}) error
}

// patternHandler answers every PatternSubmitted event with a PatternAnalyzed
// event. Pattern errors are part of the answer; transient failures are
// returned so the consumer retries and finally dead-letters the message.
type patternHandler struct {
	analyzer  analyzer
	publisher resultPublisher
	logger    logging.Logger
	timeout   time.Duration
}

func newPatternHandler(a analyzer, p resultPublisher, logger logging.Logger, timeout time.Duration) *patternHandler {
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}
	return &patternHandler{analyzer: a, publisher: p, logger: logger, timeout: timeout}
}

func (h *patternHandler) Handle(ctx context.Context, msg *common.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventPatternSubmitted {
		h.logger.Warn("Skipping unexpected event type",
			logging.String("event_type", env.EventType),
			logging.String(logging.FieldTopic, msg.Topic))
		return nil
	}

	var req envtypes.PatternSubmitted
	if err := env.DecodePayload(&req); err != nil {
		return err
	}
	if req.RequestID == "" {
		req.RequestID = env.EventID
	}
	ctx = logging.WithRequestID(ctx, req.RequestID)
	log := h.logger.WithContext(ctx)

	actx, cancel := context.WithTimeout(ctx, h.timeout)
	res, err := h.analyzer.Analyze(actx, req.Pattern)
	cancel()

	out := envtypes.PatternAnalyzed{RequestID: req.RequestID, Pattern: req.Pattern}
	switch {
	case err == nil:
		out.Result = res
	case isTransient(err):
		log.WithError(err).Warn("Analysis failed transiently", logging.String(logging.FieldPattern, req.Pattern))
		return err
	default:
		out.Error = appenv.ErrorDetail(err)
		log.Debug("Pattern rejected",
			logging.String(logging.FieldPattern, req.Pattern),
			logging.String(logging.FieldErrorCode, out.Error.Code))
	}

	if err := h.publisher.PublishPayload(ctx, kafka.TopicPatternAnalyzed, kafka.EventPatternAnalyzed, req.RequestID, out); err != nil {
		log.WithError(err).Error("Failed to publish analysis", logging.String(logging.FieldPattern, req.Pattern))
		return err
	}
	return nil
}

func isTransient(err error) bool {
	return errors.IsCode(err, errors.ErrCodePatternOracleUnavailable) ||
		errors.IsCode(err, errors.ErrCodeTimeout) ||
		stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.Is(err, context.Canceled)
}

//Personal.AI order the ending
