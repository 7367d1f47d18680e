package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"

	"subtracka/internal/auth"
)

const userIDKey = "auth.user_id"

// RequireAuth verifies the Bearer access token and stores the authenticated
// user ID in the request context for handlers to read via UserID.
func RequireAuth(tm *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		userID, err := tm.ParseAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user ID stored by RequireAuth, empty when
// the request never passed through it.
func UserID(c *gin.Context) strfmt.UUID {
	v, _ := c.Get(userIDKey)
	id, _ := v.(strfmt.UUID)
	return id
}
