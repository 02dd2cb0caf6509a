package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework

	"expense_tracker/internal/auth"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "userID"
	ContextClaims = "claims"
)

// JWTAuthMiddleware validates bearer tokens and attaches the claims
// principal to the request context.
func JWTAuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := issuer.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// UserID returns the authenticated user id from the request context.
func UserID(c *gin.Context) string {
	id, _ := c.Get(ContextUserID)
	s, _ := id.(string)
	return s
}

// ClaimsFrom returns the claims principal from the request context.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, _ := c.Get(ContextClaims)
	claims, _ := v.(*auth.Claims)
	return claims
}
