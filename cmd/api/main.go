package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keepr/keepr/internal/api"
	"github.com/keepr/keepr/internal/dbdump"
	"github.com/keepr/keepr/internal/repository"
	"github.com/keepr/keepr/internal/service"
	"github.com/keepr/keepr/pkg/config"
	"github.com/keepr/keepr/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.NewLogger(logger.ParseLevel(cfg.LogLevel), os.Stdout, cfg.LogJSON)
	logger.SetDefault(appLogger)

	logger.Info("Starting application", map[string]interface{}{
		"app":      cfg.AppName,
		"debug":    cfg.Debug,
		"port":     cfg.Port,
		"database": cfg.DatabaseType,
	})

	// Initialize database
	if err := repository.InitDB(cfg); err != nil {
		logger.Fatal("Failed to initialize database", err, nil)
	}
	db := repository.GetDB()
	logger.Info("Database initialized", nil)

	// Database dump adapter matching the configured dialect
	dumper, err := dbdump.New(cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize database dump adapter", err, nil)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	backupRepo := repository.NewBackupRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	backupService := service.NewBackupService(cfg, dumper, backupRepo, itemRepo)
	exportService := service.NewExportService(cfg, itemRepo)
	importService := service.NewImportService(cfg, db)
	restoreService := service.NewRestoreService(cfg, dumper, backupService, itemRepo, userRepo)

	// Initialize handlers
	authHandler := api.NewAuthHandler(authService)
	backupHandler := api.NewBackupHandler(backupService)
	transferHandler := api.NewTransferHandler(exportService, importService, restoreService)

	// Setup router
	router := api.SetupRouter(authHandler, backupHandler, transferHandler, authService, db, cfg)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down gracefully...", nil)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Forced shutdown", err, nil)
		}
	}()

	logger.Info("Server starting", map[string]interface{}{
		"address":      addr,
		"api_endpoint": fmt.Sprintf("http://localhost%s/api", addr),
		"health_check": fmt.Sprintf("http://localhost%s/health", addr),
	})

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start server", err, nil)
	}
	logger.Info("Shutdown complete", nil)
}
