package handler

import (
	"net/http"

	"knitmes/internal/apierror"
	"knitmes/internal/dto"
	"knitmes/internal/service"

	"github.com/gin-gonic/gin"
)

type StorageHandler struct{ svc service.StorageService }

func NewStorageHandler(svc service.StorageService) *StorageHandler {
	return &StorageHandler{svc: svc}
}

// ListLocations godoc
// @Summary      List warehouse locations
// @Description  Returns every active location with its occupancy.
// @Tags         storage
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.LocationResponse
// @Router       /v1/locations [get]
func (h *StorageHandler) ListLocations(c *gin.Context) {
	resp, err := h.svc.ListLocations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SearchCaptures godoc
// @Summary      Search storage captures
// @Tags         storage
// @Produce      json
// @Security     BearerAuth
// @Param        lot_no     query string false "Lot no"
// @Param        fg_roll_no query string false "FG roll no"
// @Success      200 {array} dto.CaptureResponse
// @Router       /v1/captures [get]
func (h *StorageHandler) SearchCaptures(c *gin.Context) {
	var filter dto.CaptureFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.SearchCaptures(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateCapture godoc
// @Summary      Record a storage capture manually
// @Description  Used by the reconciliation workflow when a confirmed roll's capture was lost.
// @Tags         storage
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateCaptureRequest true "Roll identity"
// @Success      201  {object} dto.CaptureResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/captures [post]
func (h *StorageHandler) CreateCapture(c *gin.Context) {
	var req dto.CreateCaptureRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateCapture(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ResetLocationCache godoc
// @Summary      Reset the lot-location cache
// @Description  Drops the session-scoped lot → location assignments so the next capture re-resolves from the store.
// @Tags         storage
// @Security     BearerAuth
// @Success      204
// @Router       /v1/locations/cache [delete]
func (h *StorageHandler) ResetLocationCache(c *gin.Context) {
	h.svc.ResetCache()
	c.Status(http.StatusNoContent)
}
