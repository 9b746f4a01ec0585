package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/auth"
	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/registrations"
	"github.com/aura-events/backend/pkg/response"
)

// StatsSource reports catalog-wide counts for the health check.
type StatsSource interface {
	Stats(ctx context.Context) (events.Stats, error)
}

type handlers struct {
	auth          *auth.Handler
	authn         middleware.Authenticator
	events        *events.Handler
	registrations *registrations.Handler
	stats         StatsSource
}

func newRouter(h handlers, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", health(h.stats, logger))

	api := router.Group("/api")

	// Auth (public except logout)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.auth.Signup)
		authGroup.POST("/login", h.auth.Login)
		authGroup.POST("/logout", middleware.JWT(h.authn, logger), h.auth.Logout)
	}

	// Catalog (anonymous; a live token adds isRegistered)
	api.GET("/events", h.events.List)
	api.GET("/events/:id", middleware.OptionalAuth(h.authn), h.events.Get)
	api.GET("/categories", h.events.Categories)
	api.GET("/locations", h.events.Locations)

	// Registrations (JWT required)
	regs := api.Group("/registrations")
	regs.Use(middleware.JWT(h.authn, logger))
	{
		regs.POST("", h.registrations.Register)
		regs.GET("/my-events", h.registrations.Mine)
		regs.DELETE("/:eventId", h.registrations.Cancel)
	}

	router.NoRoute(func(c *gin.Context) { response.NotFound(c, "Route not found") })
	return router
}

func health(stats StatsSource, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := stats.Stats(c.Request.Context())
		if err != nil {
			logger.Error("health check", zap.Error(err))
			response.ServiceUnavailable(c, "Database connection failed")
			return
		}
		response.OK(c, gin.H{"status": "healthy", "database": "connected", "stats": s})
	}
}
