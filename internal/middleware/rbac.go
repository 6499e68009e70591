package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
	"github.com/noah-isme/tuition-match-api/pkg/response"
)

// RequireRoles lets through only callers whose role is listed. It must run
// after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff admits admins and managers.
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleManager)
}
