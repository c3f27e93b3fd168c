package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/exohunter-go/internal/middleware"
	"github.com/irfndi/exohunter-go/internal/services"
)

// ReportHandler serves stored analysis reports.
type ReportHandler struct {
	service *services.LightCurveService
}

func NewReportHandler(service *services.LightCurveService) *ReportHandler {
	return &ReportHandler{service: service}
}

// ListReports returns the caller's reports, newest first
// @Summary List my analysis reports
// @Tags reports
// @Security BearerAuth
// @Param limit query int false "Maximum reports (1-50)"
// @Produce json
// @Router /api/v1/reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := h.service.ListReports(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err, "Failed to list reports")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reports": records,
		"count":   len(records),
	})
}

// GetReport returns one report. Reports owned by a user are only visible
// to that user; anonymous uploads are readable by id.
// @Summary Get an analysis report
// @Tags reports
// @Param id path string true "Report id"
// @Produce json
// @Router /api/v1/reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	record, err := h.service.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load report")
		return
	}
	if record.UserID != "" && record.UserID != middleware.UserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis report not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteReport removes a report. Admin only.
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.DeleteReport(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
