package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RollConfirmation is the FG-confirmation record for one physical roll.
// FGStickerGenerated is one-way false → true; the confirmation service is
// its only writer.
type RollConfirmation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LotID       uuid.UUID `gorm:"type:uuid;not null;index:idx_confirmations_lot_roll,unique"`
	MachineName string    `gorm:"not null;index:idx_confirmations_lot_roll,unique"`
	RollNo      int       `gorm:"not null;index:idx_confirmations_lot_roll,unique"`
	FGRollNo    *string   `gorm:"index"`
	GrossWeight decimal.Decimal `gorm:"type:decimal(8,2)"`
	TareWeight  decimal.Decimal `gorm:"type:decimal(8,2)"`
	NetWeight   decimal.Decimal `gorm:"type:decimal(8,2)"`
	FGStickerGenerated bool `gorm:"not null;default:false"`
	ConfirmedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Lot *Lot `gorm:"foreignKey:LotID"`
}
