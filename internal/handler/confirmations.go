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

type ConfirmationsHandler struct{ svc service.ConfirmationService }

func NewConfirmationsHandler(svc service.ConfirmationService) *ConfirmationsHandler {
	return &ConfirmationsHandler{svc: svc}
}

// ConfirmRoll godoc
// @Summary      Confirm a roll as finished goods
// @Description  Scans a roll barcode with its gross weight: normalizes weights, mints the FG roll number, prints the sticker and records the storage location. Downstream failures surface as warnings, never as rollbacks.
// @Tags         confirmations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ConfirmRollRequest true "Scan + weight"
// @Success      200  {object} dto.ConfirmationResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/confirmations [post]
func (h *ConfirmationsHandler) ConfirmRoll(c *gin.Context) {
	var req dto.ConfirmRollRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Confirm(c.Request.Context(), req, claims.Username, claims.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListConfirmations godoc
// @Summary      List a lot's confirmations
// @Description  Returns all of a lot's roll records, pending and confirmed.
// @Tags         confirmations
// @Produce      json
// @Security     BearerAuth
// @Param        allotment_id path string true "Allotment id"
// @Success      200 {array} dto.ConfirmationListItem
// @Failure      404 {object} apierror.APIError
// @Router       /v1/lots/{allotment_id}/confirmations [get]
func (h *ConfirmationsHandler) ListConfirmations(c *gin.Context) {
	resp, err := h.svc.ListByLot(c.Request.Context(), c.Param("allotment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReprintSticker godoc
// @Summary      Reprint an FG sticker
// @Tags         confirmations
// @Security     BearerAuth
// @Param        id path string true "Confirmation UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Failure      503 {object} apierror.APIError
// @Router       /v1/confirmations/{id}/reprint [post]
func (h *ConfirmationsHandler) ReprintSticker(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.Reprint(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
