package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school/api/internal/models"
)

// RequireRoles guards a route with an exact role-set check. There is no
// hierarchy: a role passes only when explicitly listed.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, ok := roleSet[account.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Access restricted.",
			})
			return
		}

		c.Next()
	}
}
