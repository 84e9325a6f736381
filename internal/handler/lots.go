package handler

import (
	"net/http"

	"knitmes/internal/apierror"
	"knitmes/internal/dto"
	"knitmes/internal/middleware"
	"knitmes/internal/service"

	"github.com/gin-gonic/gin"
)

type LotsHandler struct{ svc service.LotService }

func NewLotsHandler(svc service.LotService) *LotsHandler { return &LotsHandler{svc: svc} }

// CreateLot godoc
// @Summary      Create production lot
// @Description  Registers a lot with its machine allocations and packaging weights.
// @Tags         lots
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateLotRequest true "Lot detail"
// @Success      201  {object} dto.LotResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/lots [post]
func (h *LotsHandler) CreateLot(c *gin.Context) {
	var req dto.CreateLotRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetLot godoc
// @Summary      Get lot by allotment id
// @Tags         lots
// @Produce      json
// @Security     BearerAuth
// @Param        allotment_id path string true "Allotment id"
// @Success      200 {object} dto.LotResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/lots/{allotment_id} [get]
func (h *LotsHandler) GetLot(c *gin.Context) {
	resp, err := h.svc.GetByAllotmentID(c.Request.Context(), c.Param("allotment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListLots godoc
// @Summary      List lots
// @Description  Paginated lot list filtered by creation date and status.
// @Tags         lots
// @Produce      json
// @Security     BearerAuth
// @Param        from   query string false "From date YYYY-MM-DD"
// @Param        to     query string false "To date YYYY-MM-DD"
// @Param        status query string false "active | hold | superseded | partially_completed | all"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.LotListResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/lots [get]
func (h *LotsHandler) ListLots(c *gin.Context) {
	var filter dto.LotFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateLotStatus godoc
// @Summary      Change lot status
// @Description  Applies a status transition (hold, supersede, restart). Illegal transitions are rejected.
// @Tags         lots
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        allotment_id path string                     true "Allotment id"
// @Param        body         body dto.UpdateLotStatusRequest true "Target status"
// @Success      200 {object} dto.LotResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/lots/{allotment_id}/status [put]
func (h *LotsHandler) UpdateLotStatus(c *gin.Context) {
	var req dto.UpdateLotStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("allotment_id"), req, claims.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
