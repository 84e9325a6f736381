package model

import (
	"time"

	"github.com/google/uuid"
)

// Shift is one entry of the shift catalog (e.g. "A", "B", "Night").
type Shift struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code      string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
}
