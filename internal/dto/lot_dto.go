package dto

// LotFilter is bound from the query string of GET /v1/lots.
type LotFilter struct {
	From   string `form:"from"`   // YYYY-MM-DD inclusive
	To     string `form:"to"`     // YYYY-MM-DD inclusive
	Status string `form:"status"` // active | hold | superseded | partially_completed | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreateLotRequest struct {
	AllotmentID      string                   `json:"allotment_id"        validate:"required"`
	SalesOrderID     string                   `json:"sales_order_id"      validate:"required"`
	SalesOrderItemID string                   `json:"sales_order_item_id" validate:"required"`
	TubeWeight       string                   `json:"tube_weight"         validate:"required"`
	ShrinkWrapWeight string                   `json:"shrink_wrap_weight"  validate:"required"`
	Machines         []CreateMachineAllocation `json:"machines"           validate:"required,min=1,dive"`
}

type CreateMachineAllocation struct {
	MachineName string `json:"machine_name" validate:"required"`
	TotalRolls  int    `json:"total_rolls"  validate:"required,min=1"`
	RollPerKg   string `json:"roll_per_kg"  validate:"required"`
}

type UpdateLotStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active hold superseded partially_completed"`
}

type LotResponse struct {
	ID               string               `json:"id"`
	AllotmentID      string               `json:"allotment_id"`
	SalesOrderID     string               `json:"sales_order_id"`
	SalesOrderItemID string               `json:"sales_order_item_id"`
	Status           string               `json:"status"`
	TubeWeight       string               `json:"tube_weight"`
	ShrinkWrapWeight string               `json:"shrink_wrap_weight"`
	Machines         []AllocationResponse `json:"machines"`
	CreatedAt        string               `json:"created_at"`
}

type LotListResponse struct {
	Data  []LotResponse `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}
