package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lush-moments/backend/internal/models"
	"lush-moments/backend/pkg/config"
	"lush-moments/backend/pkg/di"
	"lush-moments/backend/pkg/logger"
	"lush-moments/backend/pkg/router"
	"lush-moments/backend/shared/observability"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load application configuration
	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	appLog := logger.New(logConfig)
	logger.SetGlobal(appLog)

	appLog.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	// Tracing and metrics
	shutdownTracing := observability.SetupTracing("lush-moments-backend")
	defer shutdownTracing()
	observability.SetupPrometheusMetrics()

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		appLog.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.ChatMessage{},
		&models.Package{},
		&models.PackageItem{},
		&models.Theme{},
		&models.FAQ{},
		&models.PackageEnhancement{},
		&models.Testimonial{},
		&models.GalleryItem{},
	); err != nil {
		appLog.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Create indexes for better query performance
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_chat_messages_session_time ON chat_messages(session_id, timestamp)").Error; err != nil {
		appLog.LogError(err, "Failed to create chat message index", "index", "idx_chat_messages_session_time")
	}

	// Initialize dependency injection container
	container, err := di.New(db, cfg, appLog)
	if err != nil {
		appLog.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		appLog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	appLog.Info("Shutting down server...")

	// Give in-flight requests time to finish
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLog.LogError(err, "Server forced to shutdown")
		os.Exit(1)
	}

	appLog.Info("Server exited")
}
