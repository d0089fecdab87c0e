package notification

import (
	"context"
	"encoding/json"
	"time"

	"callsync/internal/events"
	"callsync/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
)

const ChannelQueue = "queue"

// MessageWriter is the part of *kafkago.Writer the notifier needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type kafkaNotifier struct {
	writer MessageWriter
	topic  string
}

// NewKafkaNotifier hands messages to the consumer process instead of
// delivering inline, so slow mail servers never hold an HTTP request.
func NewKafkaNotifier(writer MessageWriter, topic string) Notifier {
	if topic == "" {
		topic = events.NotificationRequestedTopic
	}
	return &kafkaNotifier{writer: writer, topic: topic}
}

func (n *kafkaNotifier) Send(ctx context.Context, msg Message) (DeliveryResult, error) {
	res := DeliveryResult{Channel: ChannelQueue}
	if !msg.HasRecipient() {
		return res, ErrNoRecipient
	}

	payload, err := json.Marshal(events.NotificationRequestedEvent{
		EventType:  events.EventNotificationRequested,
		RequestID:  contextutil.GetRequestID(ctx),
		ToPhone:    msg.ToPhone,
		ToEmail:    msg.ToEmail,
		Subject:    msg.Subject,
		Text:       msg.Text,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return res, err
	}

	key := msg.ToEmail
	if key == "" {
		key = msg.ToPhone
	}
	if err := n.writer.WriteMessages(ctx, kafkago.Message{
		Topic: n.topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(events.EventNotificationRequested)},
		},
	}); err != nil {
		return res, err
	}

	res.Delivered = true
	return res, nil
}

// FromEvent turns a queued request back into a Message for delivery.
func FromEvent(ev events.NotificationRequestedEvent) Message {
	return Message{
		ToPhone: ev.ToPhone,
		ToEmail: ev.ToEmail,
		Subject: ev.Subject,
		Text:    ev.Text,
	}
}
