package handler

import (
	"context"
	"net/http"

	"adboard/internal/middleware"
	"adboard/internal/service"
	"adboard/web"

	"github.com/gin-gonic/gin"
)

// RouterDeps is everything NewRouter wires together
type RouterDeps struct {
	Auth       service.AuthService
	Ads        service.AdvertisementService
	Cookie     middleware.CookieConfig
	UploadsDir string
	// Health reports database reachability; nil means always healthy
	Health func(ctx context.Context) error
}

// NewRouter builds the gin engine with every route and middleware
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.SetHTMLTemplate(tmpl)
	router.Use(middleware.RequestLogger(), gin.Recovery())
	router.Use(middleware.SessionMiddleware(deps.Auth, deps.Cookie))

	router.Static("/uploads", deps.UploadsDir)

	adHandler := NewAdvertisementHandler(deps.Ads)
	authHandler := NewAuthHandler(deps.Auth, deps.Cookie)

	adHandler.RegisterAdvertisementRoutes(router, middleware.RequireAuth(loginPath))
	authHandler.RegisterAuthRoutes(router, middleware.AdminMiddleware(loginPath, "You do not have permission to register users"))

	router.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	router.NoRoute(func(c *gin.Context) {
		renderError(c, http.StatusNotFound, "Page not found")
	})

	return router, nil
}
