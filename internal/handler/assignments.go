package handler

import (
	"net/http"

	"knitmes/internal/apierror"
	"knitmes/internal/dto"
	"knitmes/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AssignmentsHandler struct{ svc service.AllocationService }

func NewAssignmentsHandler(svc service.AllocationService) *AssignmentsHandler {
	return &AssignmentsHandler{svc: svc}
}

// GetAllocation godoc
// @Summary      Get machine allocation
// @Description  Returns one machine's planned share of a lot with its shift assignments and generated barcodes.
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Allocation UUID"
// @Success      200 {object} dto.AllocationResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/allocations/{id} [get]
func (h *AssignmentsHandler) GetAllocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetAllocation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListAssignments godoc
// @Summary      List shift assignments of an allocation
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Allocation UUID"
// @Success      200 {array} dto.AssignmentResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/allocations/{id}/assignments [get]
func (h *AssignmentsHandler) ListAssignments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.ListAssignments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateAssignment godoc
// @Summary      Open shift assignment
// @Description  Claims a block of an allocation's rolls for one shift. Rejected when capacity is exceeded or a prior assignment is unfinished.
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true "Allocation UUID"
// @Param        body body dto.CreateAssignmentRequest true "Assignment detail"
// @Success      201  {object} dto.AssignmentResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/allocations/{id}/assignments [post]
func (h *AssignmentsHandler) CreateAssignment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CreateAssignmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateAssignment(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GenerateBarcodes godoc
// @Summary      Generate roll barcodes
// @Description  Mints printed codes for the next N rolls of an assignment, creating the pending confirmation records.
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true "Assignment UUID"
// @Param        body body dto.GenerateBarcodesRequest true "Count"
// @Success      200  {object} dto.AssignmentResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/assignments/{id}/barcodes [post]
func (h *AssignmentsHandler) GenerateBarcodes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.GenerateBarcodesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerateBarcodes(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
