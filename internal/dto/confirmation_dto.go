package dto

import "github.com/shopspring/decimal"

// ConfirmRollRequest drives the assigned → confirmed transition for one
// physical roll. Barcode is the raw 3- or 4-part scan; GrossWeight is the
// raw scale reading before packaging adjustments.
type ConfirmRollRequest struct {
	Barcode     string          `json:"barcode"      validate:"required"`
	GrossWeight decimal.Decimal `json:"gross_weight" validate:"required"`
	// Override accepts a net weight outside the configured tolerance.
	// Single-use per attempt; requires supervisor or admin role.
	Override bool `json:"override"`
}

// ConfirmationWarning surfaces a non-fatal downstream failure (print,
// storage capture) that must not roll back the confirmation.
type ConfirmationWarning struct {
	Code    string `json:"code"` // "print_failed" | "storage_capture_failed"
	Message string `json:"message"`
	// ManualAction is true for failures that need hand reconciliation.
	ManualAction bool `json:"manual_action"`
}

type ConfirmationResponse struct {
	ID           string  `json:"id"`
	LotNo        string  `json:"lot_no"`
	MachineName  string  `json:"machine_name"`
	RollNo       int     `json:"roll_no"`
	FGRollNo     string  `json:"fg_roll_no"`
	GrossWeight  string  `json:"gross_weight"`
	TareWeight   string  `json:"tare_weight"`
	NetWeight    string  `json:"net_weight"`
	DisplayGross string  `json:"display_gross"`
	LocationCode *string `json:"location_code,omitempty"`
	Barcode      string  `json:"barcode"` // 4-part form
	Warnings     []ConfirmationWarning `json:"warnings,omitempty"`
	ConfirmedAt  string                `json:"confirmed_at"`
}

type ConfirmationListItem struct {
	ID          string `json:"id"`
	MachineName string `json:"machine_name"`
	RollNo      int    `json:"roll_no"`
	FGRollNo    *string `json:"fg_roll_no"`
	NetWeight   string  `json:"net_weight"`
	Confirmed   bool    `json:"confirmed"`
	ConfirmedAt *string `json:"confirmed_at,omitempty"`
}
