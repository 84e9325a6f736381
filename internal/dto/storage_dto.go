package dto

// CaptureFilter is bound from the query string of GET /v1/captures.
type CaptureFilter struct {
	LotNo    string `form:"lot_no"`
	FGRollNo string `form:"fg_roll_no"`
}

type CreateCaptureRequest struct {
	LotNo    string `json:"lot_no"     validate:"required"`
	FGRollNo string `json:"fg_roll_no" validate:"required"`
}

type CaptureResponse struct {
	ID               string `json:"id"`
	LotNo            string `json:"lot_no"`
	FGRollNo         string `json:"fg_roll_no"`
	LocationCode     string `json:"location_code"`
	Dispatched       bool   `json:"dispatched"`
	ManualAssignment bool   `json:"manual_assignment"`
	CreatedAt        string `json:"created_at"`
}

type LocationResponse struct {
	ID           string `json:"id"`
	LocationCode string `json:"location_code"`
	Occupied     bool   `json:"occupied"`
	OccupiedBy   string `json:"occupied_by,omitempty"` // lot no
}
