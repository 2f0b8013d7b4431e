package handler

import (
	"net/http"

	"adboard/internal/forms"
	"adboard/internal/middleware"

	"github.com/gin-gonic/gin"
)

// render adds the current user to data and renders the page
func render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = middleware.CurrentUser(c)
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.FieldErrors{}
	}
	c.HTML(status, page, data)
}

// renderError renders the generic error page. message is shown to the user
// as is, so it must never carry internal details.
func renderError(c *gin.Context, status int, message string) {
	render(c, status, middleware.ErrorTemplate, gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}
