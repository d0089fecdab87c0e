package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Constraint names are matched by the error mappers; keep them in sync with migrations.
const (
	ConstraintCode     = "uq_employees_code"
	ConstraintPhone    = "uq_employees_phone"
	ConstraintEmail    = "uq_employees_email"
	ConstraintTempCode = "uq_employees_temp_code"
)

type State string

const (
	StateProvisioned           State = "provisioned"
	StateDocumentsUploaded     State = "documents_uploaded"
	StateRegistrationCompleted State = "registration_completed"
	StateActivated             State = "activated"
)

type Employee struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code                  string    `gorm:"type:varchar(6);not null;uniqueIndex:uq_employees_code"`
	Name                  string    `gorm:"type:varchar(255);not null"`
	FirstName             string    `gorm:"type:varchar(120)"`
	LastName              string    `gorm:"type:varchar(120)"`
	Department            string    `gorm:"type:varchar(120);not null"`
	Designation           string    `gorm:"type:varchar(120)"`
	EmployeeInternalID    string    `gorm:"type:varchar(64)"`
	JoiningDate           *time.Time
	PhoneNumber           *string `gorm:"type:varchar(20)"`
	Email                 *string `gorm:"type:varchar(255)"`
	PasswordHash          *string `gorm:"type:varchar(255)" json:"-"`
	TempCode              *string `gorm:"type:varchar(7)" json:"-"`
	TempCodeExpiresAt     *time.Time
	DocumentsUploaded     bool    `gorm:"not null;default:false"`
	IDProofFileID         *string `gorm:"type:varchar(128)"`
	PhotoFileID           *string `gorm:"type:varchar(128)"`
	RegistrationCompleted bool    `gorm:"not null;default:false"`
	Activated             bool    `gorm:"not null;default:false"`
	LastSyncAt            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             gorm.DeletedAt `gorm:"index"`
}

func (e Employee) HasCredential() bool {
	return e.PasswordHash != nil && *e.PasswordHash != ""
}

func (e Employee) IsDeleted() bool {
	return e.DeletedAt.Valid
}

// State is derived from the lifecycle flags; the furthest reached stage wins.
func (e Employee) State() State {
	switch {
	case e.Activated:
		return StateActivated
	case e.RegistrationCompleted:
		return StateRegistrationCompleted
	case e.DocumentsUploaded:
		return StateDocumentsUploaded
	default:
		return StateProvisioned
	}
}

func (e Employee) TempCodeExpired(now time.Time) bool {
	return e.TempCodeExpiresAt == nil || !now.Before(*e.TempCodeExpiresAt)
}
