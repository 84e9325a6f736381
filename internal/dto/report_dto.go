package dto

// ReportFilter is bound from the query string of the report endpoints.
type ReportFilter struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// ReadyWeightRow is one lot/machine group of confirmed net weight.
type ReadyWeightRow struct {
	LotNo          string `json:"lot_no"`
	MachineName    string `json:"machine_name"`
	ConfirmedRolls int    `json:"confirmed_rolls"`
	ReadyWeightKg  string `json:"ready_weight_kg"`
}

type ReadyWeightReport struct {
	Rows          []ReadyWeightRow `json:"rows"`
	TotalRolls    int              `json:"total_rolls"`
	TotalWeightKg string           `json:"total_weight_kg"`
}

// DispatchWeightRow is one lot of a dispatch order.
type DispatchWeightRow struct {
	LotNo            string `json:"lot_no"`
	LoadingNo        string `json:"loading_no"`
	PlannedRolls     int    `json:"planned_rolls"`
	DispatchedRolls  int    `json:"dispatched_rolls"`
	DispatchWeightKg string `json:"dispatch_weight_kg"`
	FullyDispatched  bool   `json:"fully_dispatched"`
}

type DispatchWeightReport struct {
	DispatchOrderID string              `json:"dispatch_order_id"`
	Rows            []DispatchWeightRow `json:"rows"`
	TotalWeightKg   string              `json:"total_weight_kg"`
	OrderComplete   bool                `json:"order_complete"`
}
