package middleware

import (
	"errors"
	"net/http"

	"adboard/internal/logger"
	"adboard/internal/model"
	"adboard/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey = "authUser"
	AuthRoleKey = "authRole"

	// ErrorTemplate is the page rendered for aborted requests
	ErrorTemplate = "error.html"
)

// CookieConfig describes the session cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

// Set writes the session cookie. It is always HttpOnly and SameSite=Lax.
func (cc CookieConfig) Set(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.Name, value, maxAge, "/", "", cc.Secure, true)
}

// Clear expires the session cookie in the browser
func (cc CookieConfig) Clear(c *gin.Context) {
	cc.Set(c, "", -1)
}

// SessionMiddleware resolves the session cookie to a user and stores it on the
// context. Requests without a valid session continue as anonymous.
func SessionMiddleware(auth service.AuthService, cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrNotAuthenticated) {
				logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Failed to resolve session")
				c.HTML(http.StatusInternalServerError, ErrorTemplate, gin.H{
					"Title":   http.StatusText(http.StatusInternalServerError),
					"Status":  http.StatusInternalServerError,
					"Message": "Failed to load your session",
				})
				c.Abort()
				return
			}
			// Stale or revoked cookie
			cookie.Clear(c)
			c.Next()
			return
		}

		c.Set(AuthUserKey, user)
		c.Set(AuthRoleKey, user.Role)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests
func CurrentUser(c *gin.Context) *model.User {
	val, exists := c.Get(AuthUserKey)
	if !exists {
		return nil
	}
	user, _ := val.(*model.User)
	return user
}

// RequireAuth redirects anonymous requests to loginPath
func RequireAuth(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
