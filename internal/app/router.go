// internal/app/router.go
package app

import (
	"rtx-client/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRouter(r *gin.Engine, logger *zap.Logger, s *Server) {
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.CORSMiddleware())

	// ==================== Health Check ====================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "clients": s.hub.TotalClients()})
	})

	// ==================== Public Routes ====================
	r.GET("/", s.handleIndex)
	r.GET("/login", s.handleLoginPage)
	r.POST("/login", s.handleLogin)
	r.GET("/logout", s.handleLogout)

	// ==================== Guarded Pages ====================
	guard := s.guard()
	r.GET("/mapa", guard, s.handleMapPage)
	r.GET("/cadastro", guard, s.handleRegisterPage)

	// ==================== Guarded API ====================
	api := r.Group("/api")
	api.Use(guard)
	{
		api.GET("/points", s.handlePoints)
		api.GET("/search", s.handleSearchCity)
		api.POST("/refresh", s.handleRefresh)
		api.POST("/recenter", s.handleRecenter)
		api.POST("/restaurants", s.handleRegisterRestaurant)
	}

	// ==================== WebSocket ====================
	r.GET("/ws", guard, s.handleWebsocket)
}
