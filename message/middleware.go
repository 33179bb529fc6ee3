package message

import (
	"fmt"
	"time"

	"cursedticket/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"
)

// Messages that still fail after the retries land here, so one bad event
// does not stall the projection behind it.
const poisonTopic = "sales_projection_poison"

// Retries are attempted before the poison queue takes the message.
var retry = middleware.Retry{
	MaxRetries:      5,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
	Multiplier:      2,
}

func addMiddlewares(router *message.Router, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) error {
	poisonQueue, err := middleware.PoisonQueue(poisonPublisher, poisonTopic)
	if err != nil {
		return fmt.Errorf("creating poison queue: %w", err)
	}

	r := retry
	r.Logger = logger

	router.AddMiddleware(
		middleware.Recoverer,
		correlationIDMiddleware,
		loggerMiddleware,
		handlerLogMiddleware,
		poisonQueue,
		r.Middleware,
	)

	return nil
}

func correlationIDMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := middleware.MessageCorrelationID(msg)
		if correlationID == "" {
			correlationID = "gen_" + shortuuid.New()
		}

		msg.SetContext(log.ContextWithCorrelationID(msg.Context(), correlationID))

		return next(msg)
	}
}

func loggerMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		logger := logrus.WithFields(logrus.Fields{
			"message_uuid":   msg.UUID,
			"event_name":     marshaler.NameFromMessage(msg),
			"handler":        message.HandlerNameFromCtx(msg.Context()),
			"correlation_id": log.CorrelationIDFromContext(msg.Context()),
		})
		msg.SetContext(log.ToContext(msg.Context(), logger))

		return next(msg)
	}
}

// handlerLogMiddleware sees every attempt, retries included.
func handlerLogMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		logger := log.FromContext(msg.Context())
		handler := message.HandlerNameFromCtx(msg.Context())
		start := time.Now()

		msgs, err := next(msg)

		outcome := "ok"
		if err != nil {
			outcome = "error"
			logger.WithError(err).Error("Message handling error")
		} else {
			logger.WithField("duration", time.Since(start)).Debug("Message handled")
		}
		metrics.TrackMessageHandled(handler, outcome, time.Since(start))

		return msgs, err
	}
}
