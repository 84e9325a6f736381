package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"knitmes/internal/domainerr"
)

// LotStatus is the production status of a lot. Values mirror the planning
// system's integer codes and must not be renumbered.
type LotStatus int

const (
	LotActive             LotStatus = 0
	LotHold               LotStatus = 1
	LotSuperseded         LotStatus = 2
	LotPartiallyCompleted LotStatus = 3
)

// String returns a human-readable status name.
func (s LotStatus) String() string {
	switch s {
	case LotActive:
		return "active"
	case LotHold:
		return "hold"
	case LotSuperseded:
		return "superseded"
	case LotPartiallyCompleted:
		return "partially_completed"
	default:
		return "unknown"
	}
}

// lotTransitions is the full transition table for lot status. Illegal
// transitions are rejected centrally in Transition, never per call site.
var lotTransitions = map[LotStatus][]LotStatus{
	LotActive:             {LotHold, LotSuperseded, LotPartiallyCompleted},
	LotHold:               {LotActive, LotSuperseded},
	LotSuperseded:         {LotActive}, // restart
	LotPartiallyCompleted: {LotActive, LotSuperseded},
}

// CanTransition reports whether from → to is a legal status change.
func (s LotStatus) CanTransition(to LotStatus) bool {
	for _, t := range lotTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Lot is one production allotment: a manufacturing run against a single
// sales-order line item. Lots are never deleted, only status-transitioned.
type Lot struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AllotmentID      string    `gorm:"uniqueIndex;not null"` // business key
	SalesOrderID     string    `gorm:"index;not null"`
	SalesOrderItemID string    `gorm:"not null"`
	Status           LotStatus `gorm:"not null;default:0"`
	// Packaging constants used by the weight normalizer.
	TubeWeight       decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	ShrinkWrapWeight decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Machines []MachineAllocation `gorm:"foreignKey:LotID"`
}

// Transition mutates Status after checking the transition table.
func (l *Lot) Transition(to LotStatus) error {
	if l.Status == to {
		return nil
	}
	if !l.Status.CanTransition(to) {
		return domainerr.New(domainerr.KindValidation,
			"lot %s: illegal status transition %s -> %s", l.AllotmentID, l.Status, to)
	}
	l.Status = to
	return nil
}
