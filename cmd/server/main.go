package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"remote-admin-backend/internal/config"
	"remote-admin-backend/internal/handler"
	"remote-admin-backend/internal/pkg/logger"
	"remote-admin-backend/internal/router"
	"remote-admin-backend/internal/service"
)

func main() {
	// Missing .env is fine; environment defaults apply.
	_ = godotenv.Load()

	appConfig := config.LoadAppConfig()
	appLogger := logger.NewLogger(appConfig.LogLevel)
	defer appLogger.Sync()

	adminService := service.NewAdminService(appLogger)
	if !adminService.Initialize(appConfig.FleetConfigPath) {
		appLogger.Warnw("starting with empty registry", "config", appConfig.FleetConfigPath)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		results := adminService.ConnectAllServers(ctx)
		cancel()
		connected := 0
		for _, ok := range results {
			if ok {
				connected++
			}
		}
		appLogger.Infow("initial fleet connect", "connected", connected, "total", len(results))
	}

	adminHandler := handler.NewAdminHandler(adminService)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = appConfig.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	router.RegisterRoutes(r, adminHandler, adminService.SecurityConfig())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    appConfig.ListenAddr,
		Handler: r,
	}

	go func() {
		appLogger.Infow("server starting", "address", appConfig.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalw("server failed", "error", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Warnw("http shutdown", "error", err.Error())
	}
	adminService.Shutdown()
}
