package handler

import (
	"net/http"

	"knitmes/internal/apierror"
	"knitmes/internal/model"
	"knitmes/internal/repository"

	"github.com/gin-gonic/gin"
)

// ShiftsHandler serves the shift catalog. Thin enough to sit directly on the
// repository.
type ShiftsHandler struct{ repo repository.ShiftRepository }

func NewShiftsHandler(repo repository.ShiftRepository) *ShiftsHandler {
	return &ShiftsHandler{repo: repo}
}

// ListShifts godoc
// @Summary      List shifts
// @Tags         shifts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} model.Shift
// @Router       /v1/shifts [get]
func (h *ShiftsHandler) ListShifts(c *gin.Context) {
	shifts, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list shifts"))
		return
	}
	c.JSON(http.StatusOK, shifts)
}

type createShiftRequest struct {
	Code string `json:"code" validate:"required,min=1,max=20"`
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateShift godoc
// @Summary      Create shift
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body createShiftRequest true "Shift"
// @Success      201 {object} model.Shift
// @Failure      400 {object} apierror.APIError
// @Router       /v1/shifts [post]
func (h *ShiftsHandler) CreateShift(c *gin.Context) {
	var req createShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	shift := &model.Shift{Code: req.Code, Name: req.Name, Active: true}
	if err := h.repo.Create(c.Request.Context(), shift); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("failed to create shift"))
		return
	}
	c.JSON(http.StatusCreated, shift)
}
