package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MachineAllocation is one machine's planned share of a lot's output.
// Treated as locked once any of its rolls has a sticker.
type MachineAllocation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LotID       uuid.UUID `gorm:"type:uuid;not null;index"`
	MachineName string    `gorm:"not null;index"`
	TotalRolls  int       `gorm:"not null"`
	// RollPerKg is the expected net weight of one roll, used by the
	// confirmation tolerance gate.
	RollPerKg decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Lot         *Lot             `gorm:"foreignKey:LotID"`
	Assignments []RollAssignment `gorm:"foreignKey:MachineAllocationID"`
}

// PlannedLoadKg is the derived planned output of the machine for this lot.
func (m *MachineAllocation) PlannedLoadKg() decimal.Decimal {
	return m.RollPerKg.Mul(decimal.NewFromInt(int64(m.TotalRolls)))
}

// AssignedTotal sums the rolls claimed by all shift assignments.
func (m *MachineAllocation) AssignedTotal() int {
	total := 0
	for _, a := range m.Assignments {
		total += a.AssignedRolls
	}
	return total
}

// Locked reports whether any sticker exists for this allocation's rolls,
// after which the planned figures must not change.
func (m *MachineAllocation) Locked() bool {
	for _, a := range m.Assignments {
		if a.GeneratedStickers > 0 {
			return true
		}
	}
	return false
}
