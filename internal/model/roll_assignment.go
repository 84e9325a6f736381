package model

import (
	"time"

	"github.com/google/uuid"
)

// RollAssignment is a shift's claim on a contiguous block of a machine
// allocation's planned rolls. A machine can only have one unfinished
// assignment at a time.
type RollAssignment struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MachineAllocationID uuid.UUID `gorm:"type:uuid;not null;index"`
	ShiftID             string    `gorm:"not null"`
	OperatorName        string    `gorm:"not null"`
	AssignedRolls       int       `gorm:"not null"`
	GeneratedStickers   int       `gorm:"not null;default:0"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Allocation *MachineAllocation `gorm:"foreignKey:MachineAllocationID"`
	Barcodes   []GeneratedBarcode `gorm:"foreignKey:RollAssignmentID"`
}

// RemainingRolls is the count of assigned rolls not yet FG-confirmed.
func (a *RollAssignment) RemainingRolls() int {
	return a.AssignedRolls - a.GeneratedStickers
}

// GeneratedBarcode is one physical roll's printed identity within an
// assignment. RollNumber is monotonic within the assignment's range.
type GeneratedBarcode struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RollAssignmentID uuid.UUID `gorm:"type:uuid;not null;index"`
	RollNumber       int       `gorm:"not null"`
	FGRollNo         *string   `gorm:"index"` // minted on first confirmation
	CreatedAt        time.Time
}
