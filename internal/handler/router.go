package handler

import (
	"github.com/SergeiKhy/sus/internal/auth"
	"github.com/SergeiKhy/sus/internal/middleware"
	"github.com/SergeiKhy/sus/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig зависимости HTTP-слоя
type RouterConfig struct {
	LinkService service.LinkService
	Sessions    *auth.SessionManager
	// Provider может быть nil: тогда маршруты /auth/login и /auth/callback не регистрируются
	Provider    IdentityProvider
	Store       Pinger
	RateLimiter *middleware.RateLimiter
	BaseURL     string
	Logger      *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(cfg.Logger))
	_ = router.SetTrustedProxies(nil)

	// Rate limiting для всех запросов
	router.Use(cfg.RateLimiter.Middleware())

	linkHandler := NewLinkHandler(cfg.LinkService, cfg.BaseURL, cfg.Logger)
	healthHandler := NewHealthHandler(cfg.Store, cfg.Logger)
	requireSession := middleware.RequireSession(cfg.Sessions, cfg.Logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.HealthCheck)

		links := v1.Group("/links", requireSession)
		links.POST("", cfg.RateLimiter.MiddlewareWithKey(middleware.UserKey), linkHandler.CreateLink)
		links.GET("", linkHandler.ListLinks)
		links.DELETE("/:id", linkHandler.DeleteLink)
		links.GET("/:id/stats", linkHandler.GetStats)
	}

	authHandler := NewAuthHandler(cfg.Provider, cfg.Sessions, cfg.Logger)
	authGroup := router.Group("/auth")
	{
		if cfg.Provider != nil {
			authGroup.GET("/login", authHandler.Login)
			authGroup.GET("/callback", authHandler.Callback)
		}
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Редирект по короткому коду, без сессии
	router.GET("/:code", linkHandler.Redirect)
	router.NoRoute(NotFoundPage)

	return router
}
