package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dbplayground/internal/adapter/gin/handler"
	"dbplayground/internal/adapter/gin/middleware"
	"dbplayground/pkg/logger"
)

// SetupRouter configures and returns a Gin router with all routes and middleware.
// rateLimiter may be nil.
func SetupRouter(userHandler *handler.UserHandler, rateLimiter *middleware.RateLimiter, serviceName string, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(logger.RequestID())
	router.Use(logger.Recovery(log))
	router.Use(logger.AccessLog(log))
	router.Use(rateLimiter.Handler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	v1 := router.Group("/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.ListUsers)
			users.GET("/lookup", userHandler.FindUser)
			users.GET("/:id", userHandler.GetUser)
		}
	}

	return router
}
