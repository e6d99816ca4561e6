package main

import (
	"context"
	"log"
	"os"
	"time"

	"dao-tracker-backend/internal/api/routes"
	"dao-tracker-backend/internal/config"
	"dao-tracker-backend/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file in development
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Set up logging
	setupLogging(cfg.LogLevel)

	// Probe the database once. A nil result means the process runs on
	// the in-memory store until restart.
	db, err := database.Probe(cfg.MongoURI, cfg.MongoDatabase, time.Duration(cfg.MongoProbeTimeout)*time.Second)
	if err != nil {
		logrus.Fatal("Failed to initialize database:", err)
	}
	if db == nil {
		logrus.Warn("MongoDB unreachable, running on in-memory storage")
	} else {
		logrus.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")
		defer database.Disconnect(db)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router, daoService, err := routes.SetupRoutes(db, cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize routes:", err)
	}

	// Scan for approaching submission deadlines once a day
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if err := daoService.SendDeadlineAlerts(ctx); err != nil {
				logrus.WithError(err).Warn("deadline alert scan failed")
			}
			cancel()
		}
	}()

	// Start server
	port := cfg.Port
	if port == "" {
		port = "3001"
	}

	logrus.Infof("Starting server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatal("Failed to start server:", err)
	}
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	switch level {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}
