package dto

// ScanRollRequest is one picking scan against the active lot of a dispatch
// order. The code must be the 4-part form (with FG roll number).
type ScanRollRequest struct {
	Barcode string `json:"barcode" validate:"required"`
}

type CreatePlanningRequest struct {
	DispatchOrderID      string `json:"dispatch_order_id"      validate:"required"`
	LotNo                string `json:"lot_no"                 validate:"required"`
	LoadingNo            string `json:"loading_no"             validate:"required"`
	SequenceNo           int    `json:"sequence_no"            validate:"min=0"`
	TotalDispatchedRolls int    `json:"total_dispatched_rolls" validate:"required,min=1"`
}

type UpdatePlanningRequest struct {
	LoadingNo            string `json:"loading_no"`
	TotalDispatchedRolls int    `json:"total_dispatched_rolls" validate:"omitempty,min=1"`
}

type PlanningResponse struct {
	ID                   string `json:"id"`
	DispatchOrderID      string `json:"dispatch_order_id"`
	LotNo                string `json:"lot_no"`
	LoadingNo            string `json:"loading_no"`
	SequenceNo           int    `json:"sequence_no"`
	TotalDispatchedRolls int    `json:"total_dispatched_rolls"`
	ScannedRolls         int    `json:"scanned_rolls"`
	RemainingQuantity    int    `json:"remaining_quantity"`
	FullyDispatched      bool   `json:"fully_dispatched"`
}

// PickResult is returned for each accepted scan.
type PickResult struct {
	DispatchedRollID  string `json:"dispatched_roll_id"`
	LotNo             string `json:"lot_no"`
	FGRollNo          string `json:"fg_roll_no"`
	RemainingQuantity int    `json:"remaining_quantity"`
	LotComplete       bool   `json:"lot_complete"`
	// NextLotNo is set when the active-lot pointer advanced after this scan.
	NextLotNo string `json:"next_lot_no,omitempty"`
	// OrderComplete is true when every lot in the order reached its bound.
	OrderComplete bool `json:"order_complete"`
	// Warnings carries manual-reconciliation flags (orphaned roll record).
	Warnings []ConfirmationWarning `json:"warnings,omitempty"`
}

type DispatchedRollResponse struct {
	ID          string `json:"id"`
	LotNo       string `json:"lot_no"`
	FGRollNo    string `json:"fg_roll_no"`
	MachineName string `json:"machine_name"`
	RollNo      int    `json:"roll_no"`
	NetWeight   string `json:"net_weight"`
	LoadedBy    string `json:"loaded_by"`
	LoadedAt    string `json:"loaded_at"`
}
