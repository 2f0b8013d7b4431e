package middleware

import (
	"errors"
	"net/http"

	"adboard/internal/model"
	"adboard/internal/service"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware creates a middleware to check for specific user roles.
// Anonymous requests are redirected to loginPath; users without one of
// allowedRoles get a 403 page carrying message.
func RoleMiddleware(loginPath, message string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		err := service.RequireRole(user, allowedRoles...)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, service.ErrNotAuthenticated):
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
		default:
			c.HTML(http.StatusForbidden, ErrorTemplate, gin.H{
				"Title":   "Forbidden",
				"Status":  http.StatusForbidden,
				"Message": message,
				"User":    user,
			})
			c.Abort()
		}
	}
}

// AdminMiddleware checks if the user is an admin
func AdminMiddleware(loginPath, message string) gin.HandlerFunc {
	return RoleMiddleware(loginPath, message, model.RoleAdmin)
}
