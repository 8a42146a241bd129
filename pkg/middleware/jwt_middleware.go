package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"certean-billing/pkg/utils"
)

// JWTAuthMiddleware guards client-facing routes. An empty secret disables auth.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.AbortWithError(c, fmt.Errorf("%w: authorization header missing or invalid", utils.ErrUnauthorized))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(key, tokenString)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.Set("auth_enabled", true)
		c.Set("client_id", claims.ClientID)
		c.Set("Role", claims.Role)
		c.Next()
	}
}

// AuthorizeClient reports whether the authenticated caller may act for clientID.
// Always true when auth is disabled.
func AuthorizeClient(c *gin.Context, clientID string) bool {
	if !c.GetBool("auth_enabled") {
		return true
	}
	if c.GetString("Role") == utils.RoleAdmin {
		return true
	}
	return c.GetString("client_id") == clientID
}

// RoleMiddleware requires the authenticated caller to carry requiredRole.
// It passes everything through when auth is disabled.
func RoleMiddleware(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("auth_enabled") {
			c.Next()
			return
		}
		if c.GetString("Role") != requiredRole {
			utils.AbortWithError(c, fmt.Errorf("%w: %s role required", utils.ErrForbidden, requiredRole))
			return
		}

		c.Next()
	}
}
