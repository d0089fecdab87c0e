// Package audit records security-relevant admin actions separately from the
// operational log.
package audit

import "context"

const (
	ActionEmployeeActivated     = "EMPLOYEE_ACTIVATED"
	ActionRegistrationCompleted = "REGISTRATION_COMPLETED"
	ActionEmployeeDeleted       = "EMPLOYEE_DELETED"
	ActionRecordingPurged       = "RECORDING_PURGED"
	ActionTempCodeIssued        = "TEMP_CODE_ISSUED"
	ActionAdminSeeded           = "ADMIN_SEEDED"
	ActionServerShutdown        = "SERVER_SHUTDOWN"
)

type Entry struct {
	Action  string
	Message string
	Meta    map[string]any
}

type Logger interface {
	Log(ctx context.Context, entry Entry)
}

type nopLogger struct{}

func (nopLogger) Log(context.Context, Entry) {}

func Nop() Logger { return nopLogger{} }
