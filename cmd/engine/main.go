package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/azure/brand-visibility-engine/internal/analysis"
	"github.com/azure/brand-visibility-engine/internal/config"
	"github.com/azure/brand-visibility-engine/internal/notifications"
	"github.com/azure/brand-visibility-engine/internal/scheduler"
	"github.com/azure/brand-visibility-engine/internal/storage"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting brand visibility engine")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := newStorage(startupCtx, cfg)
	cancelStartup()
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	var notifier *notifications.Service
	if cfg.NotificationsEnabled() {
		notifier = notifications.NewService(cfg)
	} else {
		logrus.Info("No notification channel configured, reports will only be stored")
	}

	var analysisService *analysis.Service
	if notifier != nil {
		analysisService = analysis.NewService(cfg, store, notifier)
	} else {
		analysisService = analysis.NewService(cfg, store, nil)
	}

	schedulerService, err := scheduler.NewService(cfg, analysisService)
	if err != nil {
		logrus.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      newRouter(analysisService),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.StorageInterface, error) {
	if cfg.StorageBackend == config.StorageFile {
		return storage.NewFileStorage(cfg.LocalStorageDir)
	}
	return storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
}
