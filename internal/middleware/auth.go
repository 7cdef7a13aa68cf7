// internal/middleware/auth.go
// Authentication middleware validates the operator JWT and sets admin context

package middleware

import (
	"net/http"
	"strings"

	"matchqueue/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequireAdmin validates that a request carries a valid operator JWT
// signed with secret. The queue CRUD and GameLocator configuration
// surface is operator-only; there is no end-user auth in this service.
func RequireAdmin(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}

		operatorID, role, err := utils.ValidateJWT(parts[1], secret)
		if err != nil || role != "admin" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("operator_id", operatorID)
		c.Next()
	}
}
