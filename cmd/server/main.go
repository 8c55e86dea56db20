package main

import (
	"context"                // context package is needed for Redis operations
	"rewear/internal/api"    // Custom package for API handlers
	"rewear/internal/config" // Custom package for configuration
	"rewear/internal/db"     // Custom package for database connections

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	config.SetupLogger(cfg)    // Setup logger

	// Refuse to start without a token signing key
	if err := cfg.ValidateServer(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Connect to the configured database
	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := api.SetupRouter(database, redisClient, api.RouterOptions{
		JWTSecret:      cfg.JWTSecret,         // HMAC key for tokens
		TokenTTL:       cfg.TokenTTL,          // Token lifetime
		CacheTTL:       cfg.CacheTTL,          // Lifetime of cached reads
		TrustedProxies: []string{"127.0.0.1"}, // Local reverse proxy only
	})
	if err != nil {
		logrus.Fatalf("failed to set up router: %v", err)
	}

	logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
