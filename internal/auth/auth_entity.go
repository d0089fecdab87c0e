package auth

import (
	"time"

	"github.com/google/uuid"
)

const ConstraintAdminEmail = "uq_admins_email"

// Admin is an operator account. Employees authenticate against their own
// employee row, not this table.
type Admin struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_admins_email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
