package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"checkout/internal/handler"
	"checkout/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	OrderHandler *handler.OrderHandler
	RedisClient  *redis.Client
	NewRelicApp  *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		orders := v1.Group("/orders")
		orders.Use(middleware.OrderTraceMiddleware())
		{
			orders.POST("", deps.OrderHandler.CreateOrder)
			orders.GET("/:id", deps.OrderHandler.GetOrder)
			orders.POST("/:id/session", deps.OrderHandler.InitOrder)
			orders.POST("/:id/card", deps.OrderHandler.UpdateCard)
			orders.POST("/:id/authentication", deps.OrderHandler.InitAuthentication)
			orders.POST("/:id/authentication/payer", deps.OrderHandler.AuthenticatePayer)
			orders.POST("/:id/pay", deps.OrderHandler.Pay)
		}

		v1.GET("/display-orders/:displayId", deps.OrderHandler.GetOrderByDisplayID)
	}

	return router
}
