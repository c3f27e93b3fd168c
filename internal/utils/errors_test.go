package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/irfndi/exohunter-go/pkg/agents"
	"github.com/irfndi/exohunter-go/pkg/nasa"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Field:   "period",
		Message: "test error message",
	}

	assert.Equal(t, "test error message", err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("name", "Planet name is required")

	assert.Error(t, err)
	assert.Equal(t, "Planet name is required", err.Error())

	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "name", validationErr.Field)
}

func TestNewValidationErrorf(t *testing.T) {
	err := NewValidationErrorf("depth", "depth must be at least %d ppm, got %g", 1, 0.5)

	assert.Equal(t, "depth must be at least 1 ppm, got 0.5", err.Error())

	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "depth", validationErr.Field)
}

func TestIsValidationError(t *testing.T) {
	base := NewValidationError("", "bad input")

	assert.True(t, IsValidationError(base))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", base)))
	assert.False(t, IsValidationError(fmt.Errorf("plain")))
	assert.False(t, IsValidationError(nil))
}

func TestIsValidationError_PublicPackages(t *testing.T) {
	agentErr := agents.ExoplanetInput{Mission: "JWST"}.Validate()
	assert.True(t, IsValidationError(agentErr))
	assert.True(t, IsValidationError(fmt.Errorf("input 0: %w", agentErr)))

	assert.True(t, IsValidationError(&nasa.ValidationError{Field: "name", Message: "Planet name is required"}))
	assert.False(t, IsValidationError(&nasa.APIError{StatusCode: 500}))
	assert.False(t, IsValidationError(&agents.APIError{StatusCode: 422}))
}
