package handler

import (
	"net/http"
	"time"

	"knitmes/internal/apierror"
	"knitmes/internal/dto"
	"knitmes/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// ReadyWeight godoc
// @Summary      Ready-weight report
// @Description  Confirmed net weight grouped by lot and machine, filtered by confirmation date.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "From date YYYY-MM-DD"
// @Param        to   query string false "To date YYYY-MM-DD"
// @Success      200 {object} dto.ReadyWeightReport
// @Failure      422 {object} apierror.APIError
// @Router       /v1/reports/ready-weight [get]
func (h *ReportsHandler) ReadyWeight(c *gin.Context) {
	var filter dto.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ReadyWeight(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportReadyWeight godoc
// @Summary      Ready-weight report as xlsx
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        from query string false "From date YYYY-MM-DD"
// @Param        to   query string false "To date YYYY-MM-DD"
// @Success      200 {file} binary
// @Failure      422 {object} apierror.APIError
// @Router       /v1/reports/ready-weight/export [get]
func (h *ReportsHandler) ExportReadyWeight(c *gin.Context) {
	var filter dto.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	filename := "ready-weight-" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.svc.ExportReadyWeight(c.Request.Context(), filter, c.Writer); err != nil {
		respondError(c, err)
		return
	}
}

// DispatchWeight godoc
// @Summary      Dispatch-weight report
// @Description  Loaded rolls and net weight per lot of one dispatch order.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        order_id path string true "Dispatch order id"
// @Success      200 {object} dto.DispatchWeightReport
// @Failure      404 {object} apierror.APIError
// @Router       /v1/reports/dispatch-weight/{order_id} [get]
func (h *ReportsHandler) DispatchWeight(c *gin.Context) {
	resp, err := h.svc.DispatchWeight(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
