package config

import (
	"errors"  // For validation errors
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort       string        // Application port
	DBDriver      string        // Database driver: mysql, postgres or sqlite
	DBUser        string        // Database user
	DBPassword    string        // Database password
	DBHost        string        // Database host
	DBPort        string        // Database port
	DBName        string        // Database name
	DBSSLMode     string        // PostgreSQL sslmode
	DBPath        string        // SQLite file path
	JWTSecret     string        // JWT secret key
	TokenTTL      time.Duration // Session token lifetime
	RedisAddr     string        // Redis server address
	RedisPass     string        // Redis password
	RedisDB       int           // Redis database number
	CacheTTL      time.Duration // Lifetime of cached catalog reads
	LogLevel      string        // Logrus level name
	IsProd        bool          // Is production environment
	AdminName     string        // Seed admin display name
	AdminEmail    string        // Seed admin email
	AdminPassword string        // Seed admin password
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),                          // Application port
		DBDriver:      getEnv("DB_DRIVER", "mysql"),                        // Database driver
		DBUser:        os.Getenv("DB_USER"),                                // Database user
		DBPassword:    os.Getenv("DB_PASSWORD"),                            // Database password
		DBHost:        getEnv("DB_HOST", "127.0.0.1"),                      // Database host
		DBPort:        os.Getenv("DB_PORT"),                                // Database port
		DBName:        os.Getenv("DB_NAME"),                                // Database name
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),                     // PostgreSQL sslmode
		DBPath:        getEnv("DB_PATH", "rewear.db"),                      // SQLite file path
		JWTSecret:     os.Getenv("JWT_SECRET"),                             // JWT secret key
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),              // Session token lifetime
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),              // Redis server address
		RedisPass:     os.Getenv("REDIS_PASS"),                             // Redis password
		RedisDB:       redisDB,                                             // Redis database number
		CacheTTL:      getDuration("CACHE_TTL", 60*time.Second),            // Cache lifetime
		LogLevel:      getEnv("LOG_LEVEL", "info"),                         // Log level
		IsProd:        os.Getenv("IS_PROD") == "true",                      // Is production environment
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),               // Seed admin display name
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),                            // Seed admin email
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),                         // Seed admin password
	}
}

// ErrMissingJWTSecret is returned by ValidateServer when JWT_SECRET is unset
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// ValidateServer checks the settings the HTTP server cannot run without
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// getEnv returns the variable's value or fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses a Go duration string such as "90s", falling back on error
func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
