package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/exohunter-go/internal/middleware"
	"github.com/irfndi/exohunter-go/internal/services"
	"github.com/irfndi/exohunter-go/pkg/lightcurve"
)

// LightCurveHandler serves the simulator and upload analysis endpoints.
type LightCurveHandler struct {
	service        *services.LightCurveService
	maxUploadBytes int64
}

// NewLightCurveHandler creates a new light curve handler.
func NewLightCurveHandler(service *services.LightCurveService, maxUploadBytes int64) *LightCurveHandler {
	return &LightCurveHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// SimulateRequest is the simulator form. Omitted fields keep their defaults.
type SimulateRequest struct {
	lightcurve.Params
	Seed         uint64 `json:"seed"`
	SmoothWindow int    `json:"smooth_window"`
}

func bindSimulateRequest(c *gin.Context) (SimulateRequest, bool) {
	req := SimulateRequest{Params: lightcurve.DefaultParams()}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

// Simulate generates a synthetic transit light curve
// @Summary Simulate a light curve
// @Tags lightcurves
// @Accept json
// @Produce json
// @Param request body SimulateRequest false "Simulation parameters"
// @Success 200 {object} lightcurve.LightCurveData
// @Router /api/v1/lightcurves/simulate [post]
func (h *LightCurveHandler) Simulate(c *gin.Context) {
	req, ok := bindSimulateRequest(c)
	if !ok {
		return
	}

	data, err := h.service.Simulate(c.Request.Context(), req.Params, req.Seed)
	if err != nil {
		respondError(c, err, "Failed to simulate light curve")
		return
	}
	middleware.AddSpanAttribute(c, "lightcurve.samples", data.Len())
	c.JSON(http.StatusOK, data)
}

// Export returns the simulated curve as a CSV download
// @Summary Export a simulated light curve as CSV
// @Tags lightcurves
// @Accept json
// @Produce text/csv
// @Router /api/v1/lightcurves/export [post]
func (h *LightCurveHandler) Export(c *gin.Context) {
	req, ok := bindSimulateRequest(c)
	if !ok {
		return
	}

	export, err := h.service.ExportCSV(c.Request.Context(), req.Params, req.Seed)
	if err != nil {
		respondError(c, err, "Failed to export light curve")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(export.Content))
}

// Fold returns the simulated curve folded on its period
// @Summary Phase-fold a simulated light curve
// @Tags lightcurves
// @Accept json
// @Produce json
// @Success 200 {object} services.FoldResult
// @Router /api/v1/lightcurves/fold [post]
func (h *LightCurveHandler) Fold(c *gin.Context) {
	req, ok := bindSimulateRequest(c)
	if !ok {
		return
	}

	result, err := h.service.Fold(c.Request.Context(), req.Params, req.Seed, req.SmoothWindow)
	if err != nil {
		respondError(c, err, "Failed to fold light curve")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Analyze runs transit detection over an uploaded light curve
// @Summary Analyze an uploaded light curve
// @Description Multipart upload with a "file" part (.csv, .txt, .dat), an optional
// @Description "options" JSON part and an optional "mission" for classification.
// @Tags lightcurves
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} services.AnalysisResult
// @Router /api/v1/lightcurves/analyze [post]
func (h *LightCurveHandler) Analyze(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		if c.Request.ContentLength > h.maxUploadBytes {
			h.uploadTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.uploadTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer func() {
		_ = file.Close()
	}()

	var opts lightcurve.AnalysisOptions
	if raw := c.Request.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis options: " + err.Error()})
			return
		}
	}

	result, err := h.service.Analyze(c.Request.Context(), services.AnalyzeRequest{
		FileName: header.Filename,
		Content:  file,
		Options:  opts,
		UserID:   middleware.UserID(c),
		Mission:  c.Request.FormValue("mission"),
	})
	if err != nil {
		respondError(c, err, "Failed to analyze light curve")
		return
	}

	middleware.AddSpanAttribute(c, "lightcurve.upload_id", result.UploadID)
	middleware.AddSpanAttribute(c, "lightcurve.detected", result.Detected())
	c.JSON(http.StatusOK, result)
}

func (h *LightCurveHandler) uploadTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("File exceeds the %d MB upload limit", h.maxUploadBytes>>20),
	})
}
