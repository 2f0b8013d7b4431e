package handler

import (
	"errors"
	"net/http"

	"adboard/internal/forms"
	"adboard/internal/logger"
	"adboard/internal/middleware"
	"adboard/internal/service"

	"github.com/gin-gonic/gin"
)

const loginPath = "/login"

// AuthHandler handles login, logout and user registration
type AuthHandler struct {
	service service.AuthService
	cookie  middleware.CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, cookie middleware.CookieConfig) *AuthHandler {
	return &AuthHandler{service: s, cookie: cookie}
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in", "Form": forms.LoginForm{}})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form forms.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "login.html", gin.H{"Title": "Log in", "Form": form, "Error": "Invalid form submission."})
		return
	}
	if fieldErrs := form.Validate(); fieldErrs.Any() {
		render(c, http.StatusUnprocessableEntity, "login.html", gin.H{"Title": "Log in", "Form": form, "Errors": fieldErrs})
		return
	}

	_, token, err := h.service.Login(c.Request.Context(), form.Identity, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			render(c, http.StatusUnauthorized, "login.html", gin.H{
				"Title": "Log in",
				"Form":  forms.LoginForm{Identity: form.Identity},
				"Error": "Invalid identity or password.",
			})
			return
		}
		logger.Error().Err(err).Msg("Error during login")
		renderError(c, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.cookie.Set(c, token, int(h.service.SessionTTL().Seconds()))
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil {
		if err := h.service.Logout(c.Request.Context(), token); err != nil {
			logger.Error().Err(err).Msg("Error during logout")
		}
	}
	h.cookie.Clear(c)
	c.Redirect(http.StatusSeeOther, loginPath)
}

func (h *AuthHandler) RegisterForm(c *gin.Context) {
	render(c, http.StatusOK, "register.html", gin.H{"Title": "Register user", "Form": forms.RegisterForm{}})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var form forms.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "register.html", gin.H{
			"Title":  "Register user",
			"Form":   form,
			"Errors": forms.FieldErrors{"form": "Invalid form submission."},
		})
		return
	}

	input, fieldErrs := form.Validate()
	if fieldErrs.Any() {
		render(c, http.StatusUnprocessableEntity, "register.html", gin.H{"Title": "Register user", "Form": form, "Errors": fieldErrs})
		return
	}

	_, err := h.service.Register(c.Request.Context(), input.Identity, input.Password, input.Role)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateIdentity) {
			render(c, http.StatusConflict, "register.html", gin.H{
				"Title":  "Register user",
				"Form":   form,
				"Errors": forms.FieldErrors{"identity": "A user with this email or phone already exists."},
			})
			return
		}
		if errors.Is(err, service.ErrPasswordTooLong) {
			render(c, http.StatusUnprocessableEntity, "register.html", gin.H{
				"Title":  "Register user",
				"Form":   form,
				"Errors": forms.FieldErrors{"password": err.Error()},
			})
			return
		}
		logger.Error().Err(err).Msg("Error during registration")
		renderError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(r gin.IRoutes, adminMW gin.HandlerFunc) {
	r.GET("/login", h.LoginForm)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)
	r.GET("/register", adminMW, h.RegisterForm)
	r.POST("/register", adminMW, h.Register)
}
