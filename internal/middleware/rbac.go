package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/uniboard/uniboard-api/internal/models"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
	"github.com/uniboard/uniboard-api/pkg/response"
)

// RequireRole admits callers whose role is at least as privileged as the
// required one. A missing identity fails with 401, an insufficient role
// with 403.
func RequireRole(required models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrAuthRequired)
			c.Abort()
			return
		}
		if !models.HasPermission(user.Role, required) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnyRole admits callers matching or dominating any listed role.
func RequireAnyRole(allowed ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrAuthRequired)
			c.Abort()
			return
		}
		if !models.HasAnyRole(user.Role, allowed) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireOwnership admits admins, or the caller whose id matches the named
// path parameter.
func RequireOwnership(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrAuthRequired)
			c.Abort()
			return
		}
		if models.HasPermission(user.Role, models.RoleAdmin) {
			c.Next()
			return
		}
		if targetID := c.Param(param); targetID != "" && targetID == user.ID {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
