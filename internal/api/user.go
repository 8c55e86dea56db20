package api

import (
	"context"                    // Context for database operations
	"rewear/internal/catalog"    // Read-side queries
	"rewear/internal/middleware" // Context keys
	"rewear/internal/utils"      // Utility functions
	"time"                       // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// DashboardHandler returns the caller's profile, items, swaps and points history
func DashboardHandler(cat *catalog.Catalog, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey) // Authenticated user ID
		key := utils.CacheDashboardPrefix + userID  // Per-user cache key
		serveCached(c, rdb, key, ttl, "dashboard", func(ctx context.Context) (*catalog.Dashboard, error) {
			return cat.Dashboard(ctx, userID)
		})
	}
}
