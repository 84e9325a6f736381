package model

import (
	"time"

	"github.com/google/uuid"
)

// Location is one warehouse slot.
type Location struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LocationCode string    `gorm:"uniqueIndex;not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
}

// StorageCapture binds one FG roll to a warehouse location. A location is
// occupied iff it has at least one capture with Dispatched=false.
type StorageCapture struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LotNo string    `gorm:"not null;index"`
	FGRollNo string `gorm:"not null;index"`
	// LocationCode is empty when no location was available at capture time;
	// such captures are flagged for manual assignment.
	LocationCode     string `gorm:"index"`
	Dispatched       bool   `gorm:"not null;default:false"`
	ManualAssignment bool   `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides GORM's default pluralization.
func (StorageCapture) TableName() string { return "storage_captures" }
