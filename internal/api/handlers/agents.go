package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/exohunter-go/pkg/agents"
)

// AgentsClient is the AI analysis backend.
type AgentsClient interface {
	Predict(ctx context.Context, in agents.ExoplanetInput) (*agents.Prediction, error)
	PredictBatch(ctx context.Context, inputs []agents.ExoplanetInput) (*agents.BatchPredictionResponse, error)
	AnalyzeKepler(ctx context.Context, q agents.PlanetQuery) (*agents.AgentResponse, error)
	AnalyzeBibliographic(ctx context.Context, q agents.PlanetQuery) (*agents.AgentResponse, error)
	AnalyzeGraceHopper(ctx context.Context, r agents.CharacteristicsRequest) (*agents.AgentResponse, error)
	Health(ctx context.Context) []agents.HealthStatus
}

// AgentsHandler proxies requests to the AI analysis backend.
type AgentsHandler struct {
	client AgentsClient
}

// NewAgentsHandler creates the handler. A nil client answers 503.
func NewAgentsHandler(client AgentsClient) *AgentsHandler {
	return &AgentsHandler{client: client}
}

func (h *AgentsHandler) available(c *gin.Context) bool {
	if h.client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Agents service not configured"})
		return false
	}
	return true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

// Predict classifies one transit signal
// @Summary Classify a transit signal
// @Tags agents
// @Accept json
// @Produce json
// @Success 200 {object} agents.Prediction
// @Router /api/v1/agents/predict [post]
func (h *AgentsHandler) Predict(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var in agents.ExoplanetInput
	if !bindJSON(c, &in) {
		return
	}
	prediction, err := h.client.Predict(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Prediction failed")
		return
	}
	c.JSON(http.StatusOK, prediction)
}

// PredictBatch classifies a JSON array of transit signals.
func (h *AgentsHandler) PredictBatch(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var inputs []agents.ExoplanetInput
	if !bindJSON(c, &inputs) {
		return
	}
	resp, err := h.client.PredictBatch(c.Request.Context(), inputs)
	if err != nil {
		respondError(c, err, "Batch prediction failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Kepler asks the Kepler agent about a planet.
func (h *AgentsHandler) Kepler(c *gin.Context) {
	if !h.available(c) {
		return
	}
	h.planetQuery(c, h.client.AnalyzeKepler)
}

// Bibliographic asks the literature agent about a planet.
func (h *AgentsHandler) Bibliographic(c *gin.Context) {
	if !h.available(c) {
		return
	}
	h.planetQuery(c, h.client.AnalyzeBibliographic)
}

func (h *AgentsHandler) planetQuery(c *gin.Context, ask func(context.Context, agents.PlanetQuery) (*agents.AgentResponse, error)) {
	var q agents.PlanetQuery
	if !bindJSON(c, &q) {
		return
	}
	resp, err := ask(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "Agent request failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GraceHopper interprets a set of observed characteristics.
func (h *AgentsHandler) GraceHopper(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var req agents.CharacteristicsRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.client.AnalyzeGraceHopper(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Agent request failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Health reports every backend health endpoint.
func (h *AgentsHandler) Health(c *gin.Context) {
	if !h.available(c) {
		return
	}
	statuses := h.client.Health(c.Request.Context())

	status, code := "healthy", http.StatusOK
	for _, s := range statuses {
		if !s.Healthy {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(code, gin.H{
		"status":   status,
		"services": statuses,
	})
}
