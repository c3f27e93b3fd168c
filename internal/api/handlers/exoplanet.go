package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/exohunter-go/internal/middleware"
	"github.com/irfndi/exohunter-go/internal/services"
)

// ExoplanetHandler serves NASA Exoplanet Archive lookups.
type ExoplanetHandler struct {
	service *services.ExoplanetService
}

func NewExoplanetHandler(service *services.ExoplanetService) *ExoplanetHandler {
	return &ExoplanetHandler{service: service}
}

// Lookup fetches archive data for a planet
// @Summary Look up a planet in the NASA Exoplanet Archive
// @Tags exoplanets
// @Param name query string true "Planet name, e.g. Kepler-452 b"
// @Produce json
// @Success 200 {object} services.PlanetLookup
// @Router /api/v1/exoplanets [get]
func (h *ExoplanetHandler) Lookup(c *gin.Context) {
	name := c.Query("name")
	middleware.AddSpanAttribute(c, "exoplanet.name", name)

	lookup, err := h.service.Lookup(c.Request.Context(), name)
	if err != nil {
		respondError(c, err, "Failed to fetch exoplanet data")
		return
	}
	middleware.AddSpanAttribute(c, "exoplanet.cached", lookup.Cached)
	c.JSON(http.StatusOK, lookup)
}

// EyesLinks returns Eyes on Exoplanets links without an archive call
// @Summary Eyes on Exoplanets links
// @Tags exoplanets
// @Param name query string true "Planet name"
// @Param host query string false "Host star name"
// @Router /api/v1/exoplanets/eyes [get]
func (h *ExoplanetHandler) EyesLinks(c *gin.Context) {
	links, err := h.service.EyesLinks(c.Query("name"), c.Query("host"))
	if err != nil {
		respondError(c, err, "Failed to build Eyes links")
		return
	}
	c.JSON(http.StatusOK, links)
}

// CacheStats returns archive cache counters.
func (h *ExoplanetHandler) CacheStats(c *gin.Context) {
	stats := h.service.CacheStats()
	c.JSON(http.StatusOK, gin.H{
		"stats":    stats,
		"hit_rate": stats.HitRate(),
	})
}

// ClearCache drops every cached lookup. Admin only.
func (h *ExoplanetHandler) ClearCache(c *gin.Context) {
	n, err := h.service.ClearCache(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to clear archive cache")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}
