package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/config"
	"github.com/NikolaSae/fin-app-hub-sub001/notifier"
	"github.com/NikolaSae/fin-app-hub-sub001/pkg/logger"
	"github.com/NikolaSae/fin-app-hub-sub001/repository"
	"github.com/NikolaSae/fin-app-hub-sub001/server"
	"github.com/NikolaSae/fin-app-hub-sub001/srvreg"
	"go.uber.org/zap"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "", "Path to optional yaml config file")
}

func main() {
	// Parse command line flags
	flag.Parse()

	log.Println("=== Starting Contract Lifecycle Manager ===")

	// Load configuration
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Fatalf("Initializing logger: %v", err)
	}
	defer logger.Sync()

	zap.S().Infof("App: %s", cfg.AppName)
	zap.S().Infof("HTTP Port: %s", cfg.HTTPPort)
	zap.S().Infof("Expiry threshold: %d days", cfg.ExpiryThresholdDays)

	// Connect to PostgreSQL Database
	dsn := cfg.GetDSN()
	repo := repository.NewRepository()
	zap.S().Infof("Connecting to PostgreSQL: %s:%s/%s", cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName)
	if err := repo.ConnectDB(dsn); err != nil {
		zap.S().Fatalf("Connecting to database: %v", err)
	}

	// Set up the notification delivery client
	notif := notifier.NewHTTPNotifier(cfg.NotifierEndpoint)
	if err := notif.HealthCheck(); err != nil {
		zap.S().Warnf("Notification service not reachable, notices will fail until it recovers: %v", err)
	}

	// Initialize Service Registry with contract endpoints
	serviceRegistry := srvreg.NewServiceRegistry(repo, notif, cfg.AppName, cfg.ExpiryThresholdDays)
	serviceRegistry.RegisterDefaultServices()

	// Start Web Server
	webserver := server.NewWebServer(cfg.HTTPPort, serviceRegistry, cfg.AppName)
	if err := webserver.Start(); err != nil {
		zap.S().Fatalf("Starting HTTP server: %v", err)
	}

	zap.S().Info("=== Contract Lifecycle Manager Successfully Started ===")
	zap.S().Infof("HTTP API: http://localhost:%s", cfg.HTTPPort)

	zap.S().Info("Available Endpoints:")
	zap.S().Info("  POST   /contracts - Create contract")
	zap.S().Info("  GET    /contracts/expiring - Scan for expiring contracts")
	zap.S().Info("  GET    /contracts/:id - Contract details")
	zap.S().Info("  PUT    /contracts/:id - Update contract")
	zap.S().Info("  DELETE /contracts/:id - Delete contract")
	zap.S().Info("  POST   /contracts/:id/status - Change contract status")
	zap.S().Info("  POST   /contracts/:id/renewal - Start renewal")
	zap.S().Info("  GET    /contracts/:id/renewal - Latest renewal")
	zap.S().Info("  PUT    /contracts/:id/renewal - Advance renewal sub-status")
	zap.S().Info("  POST   /contracts/:id/renewal/complete - Complete renewal")
	zap.S().Info("  POST   /contracts/:id/reminders - Create reminder")
	zap.S().Info("  POST   /reminders/:id/acknowledge - Acknowledge reminder")

	// Wait for interrupt signal to gracefully shut down
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	zap.S().Info("Received shutdown signal, shutting down gracefully...")

	// Create deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown the web server
	if err := webserver.Shutdown(ctx); err != nil {
		zap.S().Errorf("Error shutting down HTTP web server: %v", err)
	}
	zap.S().Info("Contract Lifecycle Manager gracefully stopped")
}
