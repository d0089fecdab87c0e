// Package notification delivers short texts (pairing codes, one-time codes)
// to employees. Delivery is always best-effort.
package notification

import (
	"context"
	"errors"

	"callsync/internal/shared/contextutil"

	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("notification: no phone or email to deliver to")

type Message struct {
	ToPhone string
	ToEmail string
	Subject string
	Text    string
}

func (m Message) HasRecipient() bool {
	return m.ToPhone != "" || m.ToEmail != ""
}

type DeliveryResult struct {
	Channel   string `json:"channel"`
	Delivered bool   `json:"delivered"`
}

//go:generate mockgen -source=notification.go -destination=mock/notification_mock.go -package=mock
type Notifier interface {
	Send(ctx context.Context, msg Message) (DeliveryResult, error)
}

// Dispatch sends msg and never fails the caller: errors are logged and
// reported as an undelivered result.
func Dispatch(ctx context.Context, n Notifier, msg Message, logger *zap.Logger) DeliveryResult {
	log := contextutil.GetLogger(ctx, logger)
	if n == nil {
		return DeliveryResult{}
	}

	res, err := n.Send(ctx, msg)
	if err != nil {
		log.Warn("notification delivery failed",
			zap.String("channel", res.Channel),
			zap.Bool("has_phone", msg.ToPhone != ""),
			zap.Bool("has_email", msg.ToEmail != ""),
			zap.Error(err),
		)
		return DeliveryResult{Channel: res.Channel}
	}
	return res
}

type chain struct {
	notifiers []Notifier
}

// Chain tries each notifier in order and returns the first success. Nil
// entries are skipped.
func Chain(notifiers ...Notifier) Notifier {
	c := &chain{}
	for _, n := range notifiers {
		if n != nil {
			c.notifiers = append(c.notifiers, n)
		}
	}
	return c
}

func (c *chain) Send(ctx context.Context, msg Message) (DeliveryResult, error) {
	var errs []error
	for _, n := range c.notifiers {
		res, err := n.Send(ctx, msg)
		if err == nil && res.Delivered {
			return res, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return DeliveryResult{}, ErrNoRecipient
	}
	return DeliveryResult{}, errors.Join(errs...)
}
