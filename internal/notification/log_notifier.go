package notification

import (
	"context"

	"go.uber.org/zap"
)

const ChannelLog = "log"

type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier is the last resort of a chain: it records that a message was
// due without printing its text, which may carry a code.
func NewLogNotifier(logger ...*zap.Logger) Notifier {
	l := zap.L().Named("notification.log")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.log")
	}
	return &logNotifier{logger: l}
}

func (n *logNotifier) Send(_ context.Context, msg Message) (DeliveryResult, error) {
	if !msg.HasRecipient() {
		return DeliveryResult{Channel: ChannelLog}, ErrNoRecipient
	}
	n.logger.Info("notification not delivered by any transport, logged only",
		zap.String("subject", msg.Subject),
		zap.Bool("has_phone", msg.ToPhone != ""),
		zap.Bool("has_email", msg.ToEmail != ""),
	)
	return DeliveryResult{Channel: ChannelLog, Delivered: true}, nil
}
