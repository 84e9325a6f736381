package dto

// ─── Requests ────────────────────────────────────────────────────────────────

// CreateAssignmentRequest opens a shift assignment against one machine
// allocation. Capacity and sequencing rules are checked by the service.
type CreateAssignmentRequest struct {
	ShiftID       string `json:"shift_id"       validate:"required"`
	OperatorName  string `json:"operator_name"  validate:"required"`
	AssignedRolls int    `json:"assigned_rolls" validate:"required,min=1"`
}

// GenerateBarcodesRequest mints printed codes for the next Count rolls of
// an assignment.
type GenerateBarcodesRequest struct {
	Count int `json:"count" validate:"required,min=1"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type BarcodeResponse struct {
	RollNumber int     `json:"roll_number"`
	FGRollNo   *string `json:"fg_roll_no,omitempty"`
	Code       string  `json:"code"`
}

type AssignmentResponse struct {
	ID                string            `json:"id"`
	ShiftID           string            `json:"shift_id"`
	OperatorName      string            `json:"operator_name"`
	AssignedRolls     int               `json:"assigned_rolls"`
	GeneratedStickers int               `json:"generated_stickers"`
	RemainingRolls    int               `json:"remaining_rolls"`
	Barcodes          []BarcodeResponse `json:"barcodes"`
	CreatedAt         string            `json:"created_at"`
}

type AllocationResponse struct {
	ID                string               `json:"id"`
	MachineName       string               `json:"machine_name"`
	TotalRolls        int                  `json:"total_rolls"`
	RollPerKg         string               `json:"roll_per_kg"`
	PlannedLoadKg     string               `json:"planned_load_kg"`
	RemainingCapacity int                  `json:"remaining_capacity"`
	Locked            bool                 `json:"locked"`
	Assignments       []AssignmentResponse `json:"assignments"`
}
