package middleware

import (
	"net/http"
	"strings"

	"github.com/01moynul/greens-storefront/internal/auth"
	"github.com/gin-gonic/gin"
)

// AdminMiddleware is the "security guard" for the back office.
// It requires a Bearer token issued for the admin subject. A nil manager
// means admin access is switched off.
func AdminMiddleware(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Admin access is not configured"})
			return
		}

		// 1. Get the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			return
		}

		// 2. Validate the token
		subject, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 3. Check permission
		if subject != auth.AdminSubject {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: admin role required"})
			return
		}

		c.Set("adminSubject", subject)
		c.Next()
	}
}
