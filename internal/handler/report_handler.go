package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/specreg-bridge/internal/service"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
	"github.com/noah-isme/specreg-bridge/pkg/response"
)

// ReportHandler exposes the override status report export.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// OverrideReport godoc
// @Summary Export the override status report of a term
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param termId query int true "Term ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /overrides/report [get]
func (h *ReportHandler) OverrideReport(c *gin.Context) {
	termID, err := strconv.ParseInt(c.Query("termId"), 10, 64)
	if err != nil || termID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId is required"))
		return
	}
	format := c.DefaultQuery("format", service.ReportFormatCSV)
	payload, contentType, err := h.reports.OverrideReport(c.Request.Context(), termID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "overrides-" + time.Now().UTC().Format("20060102") + "." + format
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
