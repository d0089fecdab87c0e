package recording

import (
	"time"

	"github.com/google/uuid"
)

// Recording is the metadata row of one uploaded call. FileID is the object
// store handle of the audio payload.
type Recording struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeCode  string    `gorm:"type:varchar(6)"`
	FileID        string    `gorm:"type:varchar(128);not null;uniqueIndex:uq_recordings_file_id"`
	FileName      string    `gorm:"type:varchar(255)"`
	FileSize      int64     `gorm:"not null;default:0"`
	ContentType   string    `gorm:"type:varchar(100)"`
	PhoneNumber   string    `gorm:"type:varchar(32)"`
	CallDuration  int       `gorm:"not null;default:0"`
	CallTimestamp *time.Time
	PurgePending  bool `gorm:"not null;default:false;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
