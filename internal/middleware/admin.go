package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminMiddleware guards destructive endpoints (report deletion, archive
// cache flush) with a shared API key. Only the bcrypt hash of the key is
// held in configuration.
type AdminMiddleware struct {
	keyHash []byte
}

// NewAdminMiddleware creates a new admin authentication middleware from a
// bcrypt hash. An empty hash disables every admin endpoint.
func NewAdminMiddleware(keyHash string) *AdminMiddleware {
	return &AdminMiddleware{keyHash: []byte(keyHash)}
}

// HashAdminKey produces the value expected in security.admin_api_key_hash.
func HashAdminKey(key string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// RequireAdminAuth middleware validates admin API keys
func (am *AdminMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(am.keyHash) == 0 {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Admin API disabled",
				"message": "No admin API key is configured",
			})
			return
		}

		// Bearer token first, then X-API-Key, then the api_key query parameter.
		candidates := make([]string, 0, 3)
		if token, err := bearerToken(c.GetHeader("Authorization")); err == nil {
			candidates = append(candidates, token)
		}
		if key := c.GetHeader("X-API-Key"); key != "" {
			candidates = append(candidates, key)
		}
		if key := c.Query("api_key"); key != "" {
			candidates = append(candidates, key)
		}

		for _, key := range candidates {
			if am.ValidateAdminKey(key) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "Valid admin API key required for this endpoint",
		})
	}
}

// ValidateAdminKey validates an admin API key
func (am *AdminMiddleware) ValidateAdminKey(key string) bool {
	if len(am.keyHash) == 0 || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(am.keyHash, []byte(key)) == nil
}
