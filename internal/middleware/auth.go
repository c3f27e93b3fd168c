// Package middleware provides HTTP middleware components for authentication,
// authorization, request correlation and telemetry.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "user_id"
	ContextScope  = "user_scope"
)

// Token issuer written into every report-access token.
const tokenIssuer = "exohunter"

var errMissingBearer = errors.New("missing bearer token")

// JWTClaims represents the JWT token claims.
type JWTClaims struct {
	// UserID owns the analysis reports the token grants access to.
	UserID string `json:"user_id"`
	// Scope is "reports" for regular tokens.
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware provides JWT authentication middleware.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware creates a new authentication middleware.
//
// Parameters:
//
//	secretKey: Secret key for signing tokens.
//
// Returns:
//
//	*AuthMiddleware: Initialized middleware.
func NewAuthMiddleware(secretKey string) *AuthMiddleware {
	return &AuthMiddleware{
		secretKey: []byte(secretKey),
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively (RFC 6750).
func bearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errMissingBearer
	}
	return parts[1], nil
}

// RequireAuth middleware validates JWT tokens.
// It requires a valid Bearer token in the Authorization header.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString, err := bearerToken(authHeader)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := am.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		if claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextScope, claims.Scope)
		c.Next()
	}
}

// OptionalAuth middleware validates JWT tokens but doesn't require them.
// If a valid token is present, user context is set.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			if claims, err := am.ValidateToken(tokenString); err == nil && claims.UserID != "" {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextScope, claims.Scope)
			}
		}
		c.Next()
	}
}

// GenerateToken creates a new JWT token for a user.
//
// Parameters:
//
//	userID: Owner of the reports the token grants access to.
//	duration: Token validity duration.
//
// Returns:
//
//	string: Signed token string.
//	error: Error if generation fails.
func (am *AuthMiddleware) GenerateToken(userID string, duration time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}

	now := time.Now()
	claims := &JWTClaims{
		UserID: userID,
		Scope:  "reports",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(am.secretKey)
}

// ValidateToken validates a JWT token and returns claims.
func (am *AuthMiddleware) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return am.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// UserID returns the authenticated user of the request, or "".
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
