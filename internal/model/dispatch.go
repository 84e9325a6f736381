package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DispatchPlanning pairs one lot with a dispatch order. Lots within an
// order are worked in SequenceNo order; the next lot only becomes active
// once the previous lot's planned roll count is fully scanned.
type DispatchPlanning struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DispatchOrderID string    `gorm:"not null;index:idx_planning_order_lot,unique"`
	LotNo           string    `gorm:"not null;index:idx_planning_order_lot,unique"`
	LoadingNo       string    `gorm:"not null"`
	SequenceNo      int       `gorm:"not null"`
	TotalDispatchedRolls     int             `gorm:"not null"` // planned
	TotalDispatchedNetWeight decimal.Decimal `gorm:"type:decimal(10,2)"`
	FullyDispatched          bool            `gorm:"not null;default:false"`
	CreatedAt                time.Time
	UpdatedAt                time.Time

	Rolls []DispatchedRoll `gorm:"foreignKey:DispatchPlanningID"`
}

// TableName overrides GORM's default pluralization.
func (DispatchPlanning) TableName() string { return "dispatch_plannings" }

// DispatchedRoll is one roll marked picked and loaded against a planning
// record.
type DispatchedRoll struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DispatchPlanningID uuid.UUID `gorm:"type:uuid;not null;index"`
	LotNo              string    `gorm:"not null;index"`
	FGRollNo           string    `gorm:"not null;index"`
	MachineName        string    `gorm:"not null"`
	RollNo             int       `gorm:"not null"`
	NetWeight          decimal.Decimal `gorm:"type:decimal(8,2)"`
	LoadedBy           string
	LoadedAt           time.Time
}
