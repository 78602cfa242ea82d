package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fittrack/privacy-rights-api/internal/system/config"
	"github.com/fittrack/privacy-rights-api/internal/system/database"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
	"github.com/fittrack/privacy-rights-api/internal/system/log"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.GetLogger().Fatal("Failed to load configuration", log.Error(err))
	}

	log.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Server"))
	logger.Info("Starting Privacy Rights API server...",
		log.String("version", version),
		log.String("build_date", buildDate),
	)

	db, err := database.Initialize(&cfg.Database.Privacy)
	if err != nil {
		logger.Fatal("Failed to initialize database", log.Error(err))
	}
	defer db.Close()

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelHealth()
	if err := db.HealthCheck(healthCtx); err != nil {
		logger.Fatal("Database health check failed", log.Error(err))
	}

	provider.InitDBProvider(db)
	dbClient, err := provider.GetDBProvider().GetPrivacyDBClient()
	if err != nil {
		logger.Fatal("Failed to get database client", log.Error(err))
	}

	manager := NewServiceManager(dbClient)

	if cfg.Scheduler.Enabled {
		manager.Scheduler.Start()
		defer manager.Scheduler.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Server.GetServerAddress(),
		Handler:      manager.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", log.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", log.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", log.Error(err))
	}
	logger.Info("Server stopped")
}
