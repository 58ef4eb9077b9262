package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TokenAuth returns a middleware that validates the Authorization
// header against the configured API token.
// Missing or invalid tokens are rejected with 401 before any handler
// runs.
func TokenAuth(validToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		if header != "Bearer "+validToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}
