package middleware

import (
	"net/http"
	"strings"

	"bookline/utils"

	"github.com/gin-gonic/gin"
)

// TenantAuthMiddleware guards the operator console. It validates the
// bearer token and injects the tenant ID into the request context.
func TenantAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "Missing authorization token", "")
			c.Abort()
			return
		}

		tenantID, err := utils.ExtractTenantIDFromToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid or expired token", "")
			c.Abort()
			return
		}

		c.Set("tenantID", tenantID)
		c.Next()
	}
}
