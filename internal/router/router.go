package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"remote-admin-backend/internal/handler"
	"remote-admin-backend/internal/model"
)

// RegisterRoutes mounts the admin API under /api.
func RegisterRoutes(r *gin.Engine, adminHandler *handler.AdminHandler, security model.SecurityConfig) {
	api := r.Group("/api")
	api.Use(RateLimit(security))
	{
		servers := api.Group("/servers")
		{
			servers.GET("", adminHandler.ListServers)
			servers.POST("", adminHandler.RegisterServer)
			servers.POST("/connect-all", adminHandler.ConnectAll)
			servers.DELETE("/:name", adminHandler.UnregisterServer)
			servers.POST("/:name/connect", adminHandler.ConnectServer)
			servers.POST("/:name/execute", adminHandler.ExecuteCommand)
		}

		commands := api.Group("/commands")
		{
			commands.POST("/bulk", adminHandler.ExecuteBulkCommand)
		}

		groups := api.Group("/groups")
		{
			groups.GET("", adminHandler.ListGroups)
			groups.GET("/:name/servers", adminHandler.GroupServers)
		}
	}
}

// RateLimit applies the security block's token bucket to the API group.
func RateLimit(security model.SecurityConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(
		rate.Limit(float64(security.RateLimitPerMinute)/60.0),
		security.RateLimitBurst,
	)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Message: "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
