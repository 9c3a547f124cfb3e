package http

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/dishbook/backend/config"
)

// SetupRouter configures all routes
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(requestid.New())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(NewRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Burst)))
	{
		v1.POST("/recipes/match", handler.MatchRecipe)
		v1.POST("/verify-product-match", handler.VerifyProductMatch)
		v1.POST("/matches/review", handler.ReviewMatches)
		v1.POST("/matches/finalize", handler.FinalizeMatches)
	}

	return router
}
