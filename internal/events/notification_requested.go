package events

import "time"

const (
	NotificationRequestedTopic = "callsync.notification.requested.v1"

	EventNotificationRequested = "notification_requested"
)

type NotificationRequestedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	ToPhone    string    `json:"to_phone,omitempty"`
	ToEmail    string    `json:"to_email,omitempty"`
	Subject    string    `json:"subject"`
	Text       string    `json:"text"`
	OccurredAt time.Time `json:"occurred_at"`
}
