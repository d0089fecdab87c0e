package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"callsync/internal/events"
	"callsync/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reader is the part of *kafkago.Reader the consumers use.
type Reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// errSkip marks a message that can never be handled; it is committed so the
// partition keeps moving.
var errSkip = errors.New("skip message")

func consume(
	ctx context.Context,
	reader Reader,
	log *zap.Logger,
	handle func(ctx context.Context, msg kafkago.Message) error,
) {
	log.Info("consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopped")
				return
			}
			log.Error("fetch message failed", zap.Error(err))
			continue
		}

		if err := handle(ctx, msg); err != nil && !errors.Is(err, errSkip) {
			log.Error("handle message failed, will be redelivered",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// ConsumeEmployeeLifecycle sends the welcome message for every
// employee_created event.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader Reader,
	notifier notification.Notifier,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")

	consume(ctx, reader, log, func(ctx context.Context, msg kafkago.Message) error {
		var event events.EmployeeCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode employee lifecycle event failed", zap.Error(err))
			return errSkip
		}
		if event.EventType != events.EventEmployeeCreated {
			return errSkip
		}

		res := notification.Dispatch(ctx,
			notifier,
			notification.WelcomeMessage(event.Name, event.Code, event.PhoneNumber, event.Email),
			log.With(zap.String("employee_id", event.EmployeeID), zap.String("request_id", event.RequestID)),
		)
		log.Info("welcome notification processed",
			zap.String("employee_id", event.EmployeeID),
			zap.Bool("delivered", res.Delivered),
			zap.String("channel", res.Channel),
		)
		return nil
	})
}

// ConsumeNotificationRequests delivers notification_requested events through
// notifier. Delivery is best effort; failures are logged and committed.
func ConsumeNotificationRequests(
	ctx context.Context,
	reader Reader,
	notifier notification.Notifier,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.notification")

	consume(ctx, reader, log, func(ctx context.Context, msg kafkago.Message) error {
		var event events.NotificationRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode notification event failed", zap.Error(err))
			return errSkip
		}

		res := notification.Dispatch(ctx, notifier, notification.FromEvent(event),
			log.With(zap.String("request_id", event.RequestID)))
		if !res.Delivered {
			log.Warn("notification not delivered", zap.String("subject", event.Subject))
		}
		return nil
	})
}
