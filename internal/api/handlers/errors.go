package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/exohunter-go/internal/database"
	"github.com/irfndi/exohunter-go/internal/middleware"
	"github.com/irfndi/exohunter-go/internal/utils"
	"github.com/irfndi/exohunter-go/pkg/agents"
	"github.com/irfndi/exohunter-go/pkg/lightcurve"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var insufficient *lightcurve.InsufficientDataError
	var apiErr *agents.APIError
	switch {
	case utils.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, lightcurve.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	case errors.Is(err, database.ErrReportNotFound):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal errors are recorded on the
// request span and replaced by fallback in the body.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		middleware.RecordError(c, err, fallback)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
