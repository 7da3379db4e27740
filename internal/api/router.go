package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/keepr/keepr/internal/middleware"
	"github.com/keepr/keepr/internal/service"
	"github.com/keepr/keepr/pkg/config"
)

func SetupRouter(
	authHandler *AuthHandler,
	backupHandler *BackupHandler,
	transferHandler *TransferHandler,
	authService *service.AuthService,
	db *gorm.DB,
	cfg *config.Config,
) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	// Global middleware (in order)
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger())

	// CORS middleware (for development)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health and metrics endpoints (no auth required)
	healthHandler := NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth endpoints with strict rate limiting
	loginLimiter := middleware.NewRateLimiter(2*time.Second, 5)
	auth := router.Group("/api/auth")
	auth.Use(loginLimiter.Middleware())
	{
		auth.POST("/login", authHandler.Login)
		auth.GET("/profile", middleware.AuthMiddleware(authService), authHandler.Profile)
	}

	// Backup endpoints; only the shared settings are staff-gated, any
	// authenticated user may inspect logs and trigger runs for their scope
	backup := router.Group("/api/backup")
	backup.Use(middleware.AuthMiddleware(authService))
	{
		backup.GET("/settings", middleware.RequireStaff(), backupHandler.GetSettings)
		backup.PUT("/settings", middleware.RequireStaff(), backupHandler.UpdateSettings)
		backup.GET("/logs", backupHandler.GetLogs)
		backup.POST("/manual", backupHandler.RunBackup)
		backup.POST("/test-s3", backupHandler.TestS3)
	}

	// Transfer endpoints; uploads are throttled per client
	uploadLimiter := middleware.NewRateLimiter(10*time.Second, 3)
	transfer := router.Group("/api")
	transfer.Use(middleware.AuthMiddleware(authService))
	{
		transfer.GET("/export/data", transferHandler.ExportData)
		transfer.POST("/import/data", uploadLimiter.Middleware(), transferHandler.ImportData)
	}

	return router
}
