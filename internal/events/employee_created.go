package events

import "time"

const (
	EmployeeLifecycleTopic = "callsync.employee.lifecycle.v1"

	EventEmployeeCreated = "employee_created"
)

// EmployeeCreatedEvent carries what the welcome notification needs, so the
// consumer does not have to read the identity store.
type EmployeeCreatedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id,omitempty"`
	EmployeeID  string    `json:"employee_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Email       string    `json:"email,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
