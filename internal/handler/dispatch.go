package handler

import (
	"net/http"

	"knitmes/internal/apierror"
	"knitmes/internal/dto"
	"knitmes/internal/middleware"
	"knitmes/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DispatchHandler struct{ svc service.DispatchService }

func NewDispatchHandler(svc service.DispatchService) *DispatchHandler {
	return &DispatchHandler{svc: svc}
}

// ScanRoll godoc
// @Summary      Scan a roll onto the truck
// @Description  Validates the 4-part code against the order's active lot, records the load, and advances the active lot when its planned count is reached.
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_id path string              true "Dispatch order id"
// @Param        body     body dto.ScanRollRequest true "Scanned code"
// @Success      200  {object} dto.PickResult
// @Failure      409  {object} apierror.APIError
// @Router       /v1/dispatch/{order_id}/scan [post]
func (h *DispatchHandler) ScanRoll(c *gin.Context) {
	var req dto.ScanRollRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ScanRoll(c.Request.Context(), c.Param("order_id"), req, claims.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreatePlanning godoc
// @Summary      Create dispatch planning
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePlanningRequest true "Planning detail"
// @Success      201  {object} dto.PlanningResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/dispatch/plannings [post]
func (h *DispatchHandler) CreatePlanning(c *gin.Context) {
	var req dto.CreatePlanningRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreatePlanning(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdatePlanning godoc
// @Summary      Update dispatch planning
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "Planning UUID"
// @Param        body body dto.UpdatePlanningRequest true "Fields to change"
// @Success      200  {object} dto.PlanningResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/dispatch/plannings/{id} [put]
func (h *DispatchHandler) UpdatePlanning(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.UpdatePlanningRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdatePlanning(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPlannings godoc
// @Summary      List all plannings
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.PlanningResponse
// @Router       /v1/dispatch/plannings [get]
func (h *DispatchHandler) ListPlannings(c *gin.Context) {
	resp, err := h.svc.ListPlannings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetOrder godoc
// @Summary      Get one order's plannings
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        order_id path string true "Dispatch order id"
// @Success      200 {array} dto.PlanningResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/dispatch/{order_id} [get]
func (h *DispatchHandler) GetOrder(c *gin.Context) {
	resp, err := h.svc.GetOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListRolls godoc
// @Summary      List an order's loaded rolls
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        order_id path string true "Dispatch order id"
// @Success      200 {array} dto.DispatchedRollResponse
// @Router       /v1/dispatch/{order_id}/rolls [get]
func (h *DispatchHandler) ListRolls(c *gin.Context) {
	resp, err := h.svc.ListRolls(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveRoll godoc
// @Summary      Undo a roll scan
// @Description  Supervisor correction: removes the roll record and reopens its planning. The storage capture stays dispatched until reconciled.
// @Tags         dispatch
// @Security     BearerAuth
// @Param        id path string true "Dispatched roll UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/dispatch/rolls/{id} [delete]
func (h *DispatchHandler) RemoveRoll(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.RemoveRoll(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetSession godoc
// @Summary      Reset an order's scan session
// @Description  Clears the in-memory duplicate-scan guard, e.g. when a new picking crew takes over.
// @Tags         dispatch
// @Security     BearerAuth
// @Param        order_id path string true "Dispatch order id"
// @Success      204
// @Router       /v1/dispatch/{order_id}/session [delete]
func (h *DispatchHandler) ResetSession(c *gin.Context) {
	h.svc.ResetSession(c.Param("order_id"))
	c.Status(http.StatusNoContent)
}
